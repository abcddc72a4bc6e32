package testutil

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// UploadRequest builds a multipart POST request carrying content under field.
func UploadRequest(t *testing.T, url, field, fileName string, content []byte) *http.Request {
	t.Helper()

	var b bytes.Buffer
	writer := multipart.NewWriter(&b)
	fileWriter, err := writer.CreateFormFile(field, fileName)
	require.NoError(t, err)
	_, err = fileWriter.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, url, &b)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
