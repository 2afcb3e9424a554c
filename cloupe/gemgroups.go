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
	"encoding/json"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/wtsi-hgi/scrna-preflight/types"
)

// GemGroupIndex maps each gem group, as a string, to the library ID and gem
// group it came from.
type GemGroupIndex map[string][2]any

// NewGemGroupIndex makes a GemGroupIndex from the library info of a run. The
// first library of each gem group names it.
func NewGemGroupIndex(infos []types.LibraryInfo) GemGroupIndex {
	index := make(GemGroupIndex)

	for _, li := range infos {
		key := strconv.Itoa(li.GemGroup)
		if _, ok := index[key]; ok {
			continue
		}

		index[key] = [2]any{li.LibraryID, li.GemGroup}
	}

	return index
}

// Write writes the index as JSON to path, in the form crconverter's
// --gemgroups option takes. Nothing is written for an empty index, and the
// returned path is then empty.
func (g GemGroupIndex) Write(path string) (string, error) {
	if len(g) == 0 {
		return "", nil
	}

	b, err := json.Marshal(map[string]GemGroupIndex{"gem_group_index": g})
	if err != nil {
		return "", err
	}

	if err = os.WriteFile(path, b, filePerm); err != nil {
		return "", errors.Wrapf(err, "writing gem group index %s", path)
	}

	return path, nil
}
