/*******************************************************************************
 * Copyright (c) 2025 Genome Research Ltd.
 *
 * Author: Sendu Bala <sb10@sanger.ac.uk>
 *
 * Permission is hereby granted, free of charge, to any person obtaining
 * a copy of this software and associated documentation files (the
 * "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish,
 * distribute, sublicense, and/or sell copies of the Software, and to
 * permit persons to whom the Software is furnished to do so, subject to
 * the following conditions:
 *
 * The above copyright notice and this permission notice shall be included
 * in all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
 * EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
 * MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY
 * CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT,
 * TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 ******************************************************************************/

package config

import (
	"net"
	"os"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

const (
	EnvVarCreds       = "SCRNA_PREFLIGHT_CREDENTIALS_FILE"
	EnvVarSheet       = "SCRNA_PREFLIGHT_SPREADSHEET_ID"
	EnvVarUser        = "SCRNA_PREFLIGHT_SQL_USER"
	EnvVarPass        = "SCRNA_PREFLIGHT_SQL_PASS"
	EnvVarHost        = "SCRNA_PREFLIGHT_SQL_HOST"
	EnvVarPort        = "SCRNA_PREFLIGHT_SQL_PORT"
	EnvVarDBName      = "SCRNA_PREFLIGHT_SQL_DB"
	EnvVarChemistry   = "SCRNA_PREFLIGHT_CHEMISTRY"
	EnvVarLibraryType = "SCRNA_PREFLIGHT_LIBRARY_TYPE"

	sqlNetwork = "tcp"
)

type Error string

func (e Error) Error() string { return string(e) }

const ErrMissingEnvs = Error("missing required environment variables")

type Config struct {
	CredentialsPath string
	SheetID         string
	User            string
	Password        string
	Host            string
	Port            string
	DBName          string
	Chemistry       string
	LibraryType     string
}

// FromEnv returns a new Config with properies populated from environment
// variables SCRNA_PREFLIGHT_*, where * is amongst: CREDENTIALS_FILE,
// SPREADSHEET_ID, SQL_USER, SQL_PASS, SQL_HOST, SQL_PORT, SQL_DB, CHEMISTRY and
// LIBRARY_TYPE.
//
// None of them are required, but CREDENTIALS_FILE and SPREADSHEET_ID must be
// set together, as must all of the SQL_* ones.
//
// If these environment variables are defined in a file called .env (and not
// previously set in an environment variable), they will be automatically
// loaded.
//
// Optionally supply a directory to look for the .env file in.
func FromEnv(dir ...string) (*Config, error) {
	var parentDir string
	if len(dir) == 1 {
		parentDir = dir[0] + string(os.PathSeparator)
	}

	godotenv.Load(parentDir + ".env") //nolint:errcheck

	c := &Config{
		CredentialsPath: os.Getenv(EnvVarCreds),
		SheetID:         os.Getenv(EnvVarSheet),
		User:            os.Getenv(EnvVarUser),
		Password:        os.Getenv(EnvVarPass),
		Host:            os.Getenv(EnvVarHost),
		Port:            os.Getenv(EnvVarPort),
		DBName:          os.Getenv(EnvVarDBName),
		Chemistry:       os.Getenv(EnvVarChemistry),
		LibraryType:     os.Getenv(EnvVarLibraryType),
	}

	if !allOrNone(c.CredentialsPath, c.SheetID) ||
		!allOrNone(c.User, c.Password, c.Host, c.Port, c.DBName) {
		return nil, ErrMissingEnvs
	}

	return c, nil
}

func allOrNone(vals ...string) bool {
	set := 0

	for _, v := range vals {
		if v != "" {
			set++
		}
	}

	return set == 0 || set == len(vals)
}

// HasSheets returns true if Google Sheets credentials were configured.
func (c *Config) HasSheets() bool {
	return c.CredentialsPath != ""
}

// HasMLWH returns true if MLWH connection details were configured.
func (c *Config) HasMLWH() bool {
	return c.Host != ""
}

// MySQL returns a mysql.Config for connecting to the MLWH, suitable for
// mlwh.New().
func (c *Config) MySQL() *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = sqlNetwork
	mc.Addr = net.JoinHostPort(c.Host, c.Port)
	mc.DBName = c.DBName

	return mc
}
