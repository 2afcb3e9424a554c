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

package preflight

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	ErrCSVNotExist   = Error("file does not exist")
	ErrCSVUnreadable = Error("file is not readable, please check file permissions")
	ErrCSVHeader     = Error("file must be a header line")
	ErrCSVNoEntries  = Error("file must contain at least one entry")

	csvSep = ","
)

// countCSVEntries checks that the CSV at path exists, is readable and starts
// with a header line whose first column is colName, and returns the number of
// lines after the header, which must be at least 1. entryType is used in
// error messages to describe the file.
func countCSVEntries(path, entryType, colName string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("Specified %s %w: %s", entryType, ErrCSVNotExist, path) //nolint:stylecheck,revive
	}

	if err := unix.Access(path, unix.R_OK); err != nil {
		return 0, fmt.Errorf("Specified %s %w: %s", entryType, ErrCSVUnreadable, path) //nolint:stylecheck,revive
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "opening %s file %s", entryType, path)
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var header string
	if scanner.Scan() {
		header = strings.TrimSpace(scanner.Text())
	}

	if first, _, _ := strings.Cut(header, csvSep); first != colName {
		return 0, fmt.Errorf("First line of %s %w, with '%s' as the first column.", //nolint:stylecheck,revive
			entryType, ErrCSVHeader, colName)
	}

	count := 0
	for scanner.Scan() {
		count++
	}

	if err = scanner.Err(); err != nil {
		return 0, errors.Wrapf(err, "reading %s file %s", entryType, path)
	}

	if count == 0 {
		return 0, fmt.Errorf("Specified %s %w.", entryType, ErrCSVNoEntries) //nolint:stylecheck,revive
	}

	return count, nil
}
