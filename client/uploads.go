package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

type MediaStoreType string

const (
	InputMediaType  MediaStoreType = "input"
	TempMediaType   MediaStoreType = "temp"
	OutputMediaType MediaStoreType = "output"
)

// UploadMediaFromReader uploads an image or video asset to the renderer's
// media store and returns the name the server chose for it. That name is the
// asset reference a rebuild's media bindings expect; the server may pick a
// different name than the one requested.
func (c *RenderClient) UploadMediaFromReader(r io.Reader, filename string, overwrite bool, storeType MediaStoreType, subfolder string) (string, error) {
	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)

	formFile, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(formFile, r); err != nil {
		return "", err
	}

	_ = writer.WriteField("overwrite", fmt.Sprintf("%v", overwrite))
	_ = writer.WriteField("type", string(storeType))
	if subfolder != "" {
		_ = writer.WriteField("subfolder", subfolder)
	}
	writer.Close()

	req, err := http.NewRequest("POST", fmt.Sprintf("http://%s/upload/image", c.serverBaseAddress), &requestBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload error: %d - %s", resp.StatusCode, resp.Status)
	}

	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}
	name, ok := data["name"].(string)
	if !ok {
		return "", fmt.Errorf("invalid upload response format")
	}
	return name, nil
}

// UploadMediaFromPath uploads a file from disk to the renderer's media
// store.
func (c *RenderClient) UploadMediaFromPath(filePath string, overwrite bool, storeType MediaStoreType, subfolder string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return c.UploadMediaFromReader(file, filepath.Base(filePath), overwrite, storeType, subfolder)
}
