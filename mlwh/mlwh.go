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

// Package mlwh queries the Multi-LIMS Warehouse for sequencing run details.
package mlwh

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/wtsi-hgi/scrna-preflight/types"
)

const (
	sqlDriverName   = "mysql"
	connMaxLifetime = time.Minute * 3
	maxOpenConns    = 10
	maxIdleConns    = 10
)

// MLWH is a connection to the MLWH database.
type MLWH struct {
	pool *sql.DB
}

// New returns a new MLWH connection using mysql.Config that you can get from
// config.FromEnv().MySQL().
func New(c *mysql.Config) (*MLWH, error) {
	pool, err := sql.Open(sqlDriverName, c.FormatDSN())
	if err != nil {
		return nil, err
	}

	pool.SetConnMaxLifetime(connMaxLifetime)
	pool.SetMaxOpenConns(maxOpenConns)
	pool.SetMaxIdleConns(maxIdleConns)

	return newFromDB(pool), pool.Ping()
}

func newFromDB(pool *sql.DB) *MLWH {
	return &MLWH{pool: pool}
}

const getLanesPrefix = `
SELECT DISTINCT fc.flowcell_barcode, fc.position
FROM iseq_flowcell fc
WHERE fc.flowcell_barcode IN (`

// UnknownLanes returns those of the given flowcell lanes that the MLWH has no
// record of, in the given order.
func (m *MLWH) UnknownLanes(ctx context.Context, lanes []types.FlowcellLane) ([]types.FlowcellLane, error) {
	if len(lanes) == 0 {
		return nil, nil
	}

	known, err := m.knownLanes(ctx, flowcells(lanes))
	if err != nil {
		return nil, err
	}

	var unknown []types.FlowcellLane

	for _, fl := range lanes {
		if !known[fl] {
			unknown = append(unknown, fl)
		}
	}

	return unknown, nil
}

func flowcells(lanes []types.FlowcellLane) []any {
	seen := make(map[string]bool)

	var fcs []any

	for _, fl := range lanes {
		if seen[fl.Flowcell] {
			continue
		}

		seen[fl.Flowcell] = true

		fcs = append(fcs, fl.Flowcell)
	}

	return fcs
}

func (m *MLWH) knownLanes(ctx context.Context, fcs []any) (map[types.FlowcellLane]bool, error) {
	query := getLanesPrefix + strings.TrimSuffix(strings.Repeat("?,", len(fcs)), ",") + ")"

	rows, err := m.pool.QueryContext(ctx, query, fcs...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	known := make(map[types.FlowcellLane]bool)

	for rows.Next() {
		var fl types.FlowcellLane

		if err := rows.Scan(&fl.Flowcell, &fl.Lane); err != nil {
			return nil, err
		}

		known[fl] = true
	}

	if err := rows.Close(); err != nil {
		return nil, err
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return known, nil
}

// Close closes the connection to the MLWH.
func (m *MLWH) Close() error {
	return m.pool.Close()
}
