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

package cloupe

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const partialSuffix = ".part"

// moveFile moves a file from src to dst. If dst already exists with the same
// size, src is removed and dst left alone. If it exists with a different size,
// an error is returned. Otherwise a rename is attempted, falling back on a
// copy.
func moveFile(src, dst string) error {
	exists, err := checkExistingFile(src, dst)
	if err != nil {
		return err
	}

	if exists {
		return removeUnlessSame(src, dst)
	}

	if err = os.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		return err
	}

	if err = os.Rename(src, dst); err == nil {
		return nil
	}

	return copyAndRemove(src, dst)
}

// checkExistingFile returns true if dst exists and has the same size as src.
func checkExistingFile(src, dst string) (bool, error) {
	dstInfo, err := os.Stat(dst)
	if os.IsNotExist(err) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, err
	}

	if srcInfo.Size() == dstInfo.Size() {
		return true, nil
	}

	return false, fmt.Errorf("%w: %s", ErrExistsDiff, dst)
}

// removeUnlessSame removes src, unless it is the very file dst.
func removeUnlessSame(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	dstInfo, err := os.Stat(dst)
	if err != nil {
		return err
	}

	if os.SameFile(srcInfo, dstInfo) {
		return nil
	}

	return os.Remove(src)
}

// copyAndRemove copies src to a temporary file beside dst, renames that in to
// place, then removes src. dst never holds a partial copy.
func copyAndRemove(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "opening %s", src)
	}

	defer srcFile.Close()

	tmp := dst + partialSuffix

	if err = writePartial(srcFile, tmp); err != nil {
		os.Remove(tmp) //nolint:errcheck

		return err
	}

	if err = os.Rename(tmp, dst); err != nil {
		return errors.Wrapf(err, "renaming %s", tmp)
	}

	return os.Remove(src)
}

func writePartial(r io.Reader, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}

	if _, err = io.Copy(f, r); err != nil {
		f.Close()

		return errors.Wrapf(err, "copying to %s", path)
	}

	return f.Close()
}
