// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cloud

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
)

const gcsScheme = "gs://"

// GCSObject identifies an object in Google Cloud Storage.
type GCSObject struct {
	Bucket   string
	Name     string
	MIMEType string
}

func (o *GCSObject) String() string {
	return gcsScheme + o.Bucket + "/" + o.Name
}

// ParseGCSURI parses "gs://bucket/object".
func ParseGCSURI(uri string) (*GCSObject, error) {
	if !strings.HasPrefix(uri, gcsScheme) {
		return nil, fmt.Errorf("invalid GCS URI format: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, gcsScheme), "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid GCS URI: unable to determine bucket and object from %s", uri)
	}
	return &GCSObject{Bucket: parts[0], Name: parts[1]}, nil
}

// ReadGCSObject downloads an object into memory, refusing objects larger
// than maxBytes.
func ReadGCSObject(ctx context.Context, client *storage.Client, obj *GCSObject, maxBytes int64) ([]byte, error) {
	reader, err := client.Bucket(obj.Bucket).Object(obj.Name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS reader for %s: %w", obj, err)
	}
	defer func(reader *storage.Reader) {
		if err := reader.Close(); err != nil {
			slog.Warn("failed to close GCS reader", "object", obj.String(), "error", err)
		}
	}(reader)

	data, err := io.ReadAll(io.LimitReader(reader, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%s is larger than %d bytes", obj, maxBytes)
	}
	return data, nil
}

// GCSStore publishes artifacts to a bucket. When a signer is configured the
// artifact location is a V4 signed GET URL, otherwise the gs:// URI.
type GCSStore struct {
	client      *storage.Client
	bucket      string
	prefix      string
	iamClient   *credentials.IamCredentialsClient
	signerEmail string
	expires     time.Duration
}

func NewGCSStore(client *storage.Client, bucket string, prefix string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket, prefix: prefix}
}

// WithSigner enables signed download URLs. The blob is signed remotely by
// the IAM credentials API, so no private key is needed on the host.
func (s *GCSStore) WithSigner(iamClient *credentials.IamCredentialsClient, email string, expires time.Duration) *GCSStore {
	s.iamClient = iamClient
	s.signerEmail = email
	s.expires = expires
	return s
}

func (s *GCSStore) objectName(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *GCSStore) Publish(ctx context.Context, localPath string, contentType string) (*model.Artifact, error) {
	name := ArtifactName(localPath)
	obj := s.client.Bucket(s.bucket).Object(s.objectName(name))

	dat, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", localPath, err)
	}
	defer dat.Close()

	writer := obj.NewWriter(ctx)
	writer.ContentType = contentType
	written, err := io.Copy(writer, dat)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("failed to copy to GCS or partial write, %d bytes: %w", written, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close GCS writer: %w", err)
	}
	slog.InfoContext(ctx, "uploaded artifact", "bucket", s.bucket, "object", obj.ObjectName(), "bytes", written)

	artifact := &model.Artifact{
		Name:        name,
		Location:    (&GCSObject{Bucket: s.bucket, Name: obj.ObjectName()}).String(),
		ContentType: contentType,
		Size:        written,
	}
	if s.iamClient != nil && s.signerEmail != "" {
		u, err := s.SignedURL(ctx, obj.ObjectName())
		if err != nil {
			slog.WarnContext(ctx, "failed to sign artifact URL", "object", obj.ObjectName(), "error", err)
		} else {
			artifact.Location = u
		}
	}
	return artifact, nil
}

func (s *GCSStore) Delete(ctx context.Context, artifact *model.Artifact) error {
	err := s.client.Bucket(s.bucket).Object(s.objectName(artifact.Name)).Delete(ctx)
	if err == storage.ErrObjectNotExist {
		return nil
	}
	return err
}

// SignedURL returns a V4 signed GET URL for object.
func (s *GCSStore) SignedURL(ctx context.Context, object string) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(s.expires),
		GoogleAccessID: s.signerEmail,
		SignBytes: func(b []byte) ([]byte, error) {
			resp, err := s.iamClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.signerEmail),
				Payload: b,
			})
			if err != nil {
				return nil, err
			}
			return resp.SignedBlob, nil
		},
	}
	u, err := s.client.Bucket(s.bucket).SignedURL(object, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", s.bucket, object, err)
	}
	return u, nil
}
