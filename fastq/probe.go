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

// Package fastq finds the FASTQ files a sample def refers to and does the
// read-only probing of them needed to plan chunks: permission checks, gzip
// sniffing and reading run data from the first record.
package fastq

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrUnreadable    = Error("Do not have file read permission for FASTQ file")
	ErrGzipNoSuffix  = Error("Input FASTQ file is gzipped but filename does not have .gz suffix")
	ErrSuffixNotGzip = Error("Input FASTQ file is not gzipped but filename has .gz suffix")
	ErrEmpty         = Error("Could not extract flowcell and lane from FASTQ file. File is empty")
	ErrNoRunData     = Error("Could not extract flowcell and lane from FASTQ header")
	ErrNotFastq      = Error("FASTQ record does not start with @")

	// GzipSuffix is the suffix that gzipped FASTQs must have, and other FASTQs
	// must not.
	GzipSuffix = ".gz"

	headerFieldSep    = ":"
	flowcellField     = 2
	laneField         = 3
	minHeaderFields   = 4
	fastqHeaderPrefix = '@'
)

var gzipMagic = []byte{0x1f, 0x8b} //nolint:gochecknoglobals

// CheckReadable returns an error if the current user can't read the given
// file.
func CheckReadable(path string) error {
	if err := unix.Access(path, unix.R_OK); err != nil {
		return fmt.Errorf("%w: %s", ErrUnreadable, path)
	}

	return nil
}

// IsGzipped returns true if the given file has a valid gzip header and at least
// the start of a gzip stream.
func IsGzipped(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, errors.Wrapf(err, "opening FASTQ %s", path)
	}

	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return false, nil //nolint:nilerr
	}

	defer gz.Close()

	if _, err = gz.Read(make([]byte, 1)); err != nil && !errors.Is(err, io.EOF) {
		return false, nil //nolint:nilerr
	}

	return true, nil
}

// CheckGzipSuffix returns an error if the given file is gzipped and doesn't
// end in GzipSuffix, or is not gzipped but does.
func CheckGzipSuffix(path string) error {
	gzipped, err := IsGzipped(path)
	if err != nil {
		return err
	}

	hasSuffix := strings.HasSuffix(path, GzipSuffix)

	switch {
	case gzipped && !hasSuffix:
		return fmt.Errorf("%w: %s", ErrGzipNoSuffix, path)
	case !gzipped && hasSuffix:
		return fmt.Errorf("%w: %s", ErrSuffixNotGzip, path)
	}

	return nil
}

// Check does CheckReadable() followed by CheckGzipSuffix().
func Check(path string) error {
	if err := CheckReadable(path); err != nil {
		return err
	}

	return CheckGzipSuffix(path)
}

// RunData returns the flowcell and lane recorded in the header of the first
// record of the given FASTQ, which may be gzipped regardless of its name.
//
// Illumina headers look like @INSTRUMENT:RUN:FLOWCELL:LANE:TILE:X:Y, so the
// 3rd and 4th colon separated fields are returned.
func RunData(path string) (flowcell, lane string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", errors.Wrapf(err, "opening FASTQ %s", path)
	}

	defer f.Close()

	r, closer, err := DecompressingReader(f)
	if err != nil {
		return "", "", errors.Wrapf(err, "reading FASTQ %s", path)
	}

	defer closer()

	header, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", "", errors.Wrapf(err, "reading FASTQ %s", path)
	}

	return parseRunData(path, header)
}

// DecompressingReader returns a buffered reader of r's content, decompressed
// if it starts with the gzip magic number, along with a func to call when
// done with it.
func DecompressingReader(r io.Reader) (*bufio.Reader, func(), error) {
	br := bufio.NewReader(r)

	magic, err := br.Peek(len(gzipMagic))
	if err != nil || !bytes.Equal(magic, gzipMagic) {
		return br, func() {}, nil //nolint:nilerr
	}

	gz, err := gzip.NewReader(br)
	if err != nil {
		return nil, nil, err
	}

	return bufio.NewReader(gz), func() { gz.Close() }, nil
}

func parseRunData(path, header string) (string, string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", "", fmt.Errorf("%w: %s", ErrEmpty, path)
	}

	if header[0] != fastqHeaderPrefix {
		return "", "", fmt.Errorf("%w: %s", ErrNotFastq, path)
	}

	name, _, _ := strings.Cut(header[1:], " ")

	fields := strings.Split(name, headerFieldSep)
	if len(fields) < minHeaderFields {
		return "", "", fmt.Errorf("%w %q: %s", ErrNoRunData, header, path)
	}

	return fields[flowcellField], fields[laneField], nil
}
