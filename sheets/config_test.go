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
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/wtsi-hgi/scrna-preflight/config"
	"golang.org/x/oauth2/jwt"
)

const (
	userPerms  = 0600
	clientMail = "reader@preflight.iam.gserviceaccount.com"
	keyJSON    = `{
    "type": "service_account",
    "project_id": "preflight",
    "private_key_id": "kid1",
    "private_key": "-----KEY-----\n",
    "client_email": "` + clientMail + `",
    "token_uri": "https://example.com/token"
}`
)

func TestServiceCredentials(t *testing.T) {
	Convey("Given a service account key file", t, func() {
		credPath := filepath.Join(t.TempDir(), "key.json")
		So(os.WriteFile(credPath, []byte(keyJSON), userPerms), ShouldBeNil)

		Convey("You can read the parts needed for a read-only jwt.Config", func() {
			sc, err := ServiceCredentialsFromFile(credPath)
			So(err, ShouldBeNil)
			So(sc, ShouldResemble, &ServiceCredentials{
				Type:         "service_account",
				PrivateKeyID: "kid1",
				PrivateKey:   "-----KEY-----\n",
				ClientEmail:  clientMail,
				TokenURI:     "https://example.com/token",
			})

			So(sc.toJWTConfig(), ShouldResemble, &jwt.Config{
				Email:        clientMail,
				PrivateKey:   []byte("-----KEY-----\n"),
				PrivateKeyID: "kid1",
				TokenURL:     "https://example.com/token",
				Scopes:       []string{readOnlyScope},
			})
		})

		Convey("You can read it via a Config, which must have sheets configured", func() {
			sc, err := ServiceCredentialsFromConfig(&config.Config{CredentialsPath: credPath, SheetID: "doc"})
			So(err, ShouldBeNil)
			So(sc.ClientEmail, ShouldEqual, clientMail)

			_, err = ServiceCredentialsFromConfig(&config.Config{})
			So(err, ShouldEqual, ErrNoCredentials)
		})

		Convey("A missing token_uri defaults to Google's", func() {
			writeKey(credPath, `{"type":"service_account","client_email":"a@b","private_key":"k"}`)

			sc, err := ServiceCredentialsFromFile(credPath)
			So(err, ShouldBeNil)
			So(sc.TokenURI, ShouldEqual, defaultTokenURI)
		})

		Convey("Keys that aren't for a complete service account are rejected", func() {
			writeKey(credPath, `{"type":"authorized_user","client_email":"a@b","private_key":"k"}`)

			_, err := ServiceCredentialsFromFile(credPath)
			So(err, ShouldEqual, ErrNotServiceAcct)

			writeKey(credPath, `{"type":"service_account","client_email":"a@b"}`)

			_, err = ServiceCredentialsFromFile(credPath)
			So(err, ShouldEqual, ErrIncompleteCred)
		})

		Convey("Bad JSON and missing files are errors", func() {
			writeKey(credPath, "{")

			_, err := ServiceCredentialsFromFile(credPath)
			So(err, ShouldNotBeNil)

			_, err = ServiceCredentialsFromFile(filepath.Join(t.TempDir(), "missing.json"))
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})
	})
}

func writeKey(path, content string) {
	So(os.WriteFile(path, []byte(content), userPerms), ShouldBeNil)
}
