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

package sheets

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/wtsi-hgi/scrna-preflight/config"
	"golang.org/x/oauth2/jwt"
)

const (
	ErrNoCredentials  = Error("no Google credentials file configured")
	ErrNotServiceAcct = Error("Google credentials are not for a service account")
	ErrIncompleteCred = Error("Google credentials need a client_email and private_key")

	serviceAccountType = "service_account"
	defaultTokenURI    = "https://oauth2.googleapis.com/token"
	readOnlyScope      = "https://www.googleapis.com/auth/spreadsheets.readonly"
)

// ServiceCredentials are the parts of a Google service account key file that
// we need to read sheets.
type ServiceCredentials struct {
	Type         string `json:"type"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

// ServiceCredentialsFromConfig reads the credentials file configured in the
// given Config.
func ServiceCredentialsFromConfig(c *config.Config) (*ServiceCredentials, error) {
	if !c.HasSheets() {
		return nil, ErrNoCredentials
	}

	return ServiceCredentialsFromFile(c.CredentialsPath)
}

// ServiceCredentialsFromFile parses a service account key file. The token URI
// defaults to Google's if the file doesn't have one.
func ServiceCredentialsFromFile(path string) (*ServiceCredentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading credentials %s", path)
	}

	sc := &ServiceCredentials{}
	if err = json.Unmarshal(data, sc); err != nil {
		return nil, errors.Wrapf(err, "parsing credentials %s", path)
	}

	if err = sc.validate(); err != nil {
		return nil, err
	}

	if sc.TokenURI == "" {
		sc.TokenURI = defaultTokenURI
	}

	return sc, nil
}

func (sc *ServiceCredentials) validate() error {
	if sc.Type != serviceAccountType {
		return ErrNotServiceAcct
	}

	if sc.ClientEmail == "" || sc.PrivateKey == "" {
		return ErrIncompleteCred
	}

	return nil
}

func (sc *ServiceCredentials) toJWTConfig() *jwt.Config {
	return &jwt.Config{
		Email:        sc.ClientEmail,
		PrivateKey:   []byte(sc.PrivateKey),
		PrivateKeyID: sc.PrivateKeyID,
		TokenURL:     sc.TokenURI,
		Scopes:       []string{readOnlyScope},
	}
}
