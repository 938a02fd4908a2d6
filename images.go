package postapi

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/png"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 800
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
)

// processImage decodes an image from src, optionally resizes it to
// maxImageWidth, and encodes it as JPEG. Returns metadata and the encoded
// bytes.
func (a *App) processImage(src io.Reader, originalName string) (Image, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return Image{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// Resize if wider than max
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	filename := slugifyFilename(originalName) + ".jpg"

	return Image{
		Filename:     filename,
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         buf.Len(),
		UploadedAt:   encodeTime(a.Store.clock()),
	}, buf.Bytes(), nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
// Names with no slugifiable characters fall back to a fixed stem.
func slugifyFilename(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	slug := Slugify(base)
	if slug == "" {
		return "image"
	}
	return slug
}

// ensureUniqueFilename appends a counter if filename already exists in the
// uploads directory or the database.
func (a *App) ensureUniqueFilename(img *Image) error {
	base := strings.TrimSuffix(img.Filename, ".jpg")
	existing, err := a.Store.ListImages()
	if err != nil {
		return err
	}
	taken := make(map[string]struct{}, len(existing))
	for _, ex := range existing {
		taken[ex.Filename] = struct{}{}
	}
	candidate := img.Filename
	counter := 1
	for {
		_, inDB := taken[candidate]
		_, statErr := os.Stat(filepath.Join(a.Config.UploadsDir, candidate))
		if !inDB && statErr != nil {
			break
		}
		counter++
		candidate = fmt.Sprintf("%s-%d.jpg", base, counter)
	}
	img.Filename = candidate
	return nil
}

func (a *App) handleImageUpload(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no image file provided")
	}
	if file.Size > maxUploadSize {
		return echo.NewHTTPError(http.StatusBadRequest, "file too large (max 10MB)")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, data, err := a.processImage(src, file.Filename)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid image: "+err.Error())
	}

	if err := a.ensureUniqueFilename(&img); err != nil {
		return err
	}

	if err := os.MkdirAll(a.Config.UploadsDir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(a.Config.UploadsDir, img.Filename), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}

	if err := a.Store.SaveImage(img); err != nil {
		return err
	}

	img.URL = a.imageURL(img.Filename)
	return c.JSON(http.StatusCreated, img)
}

func (a *App) handleImageDelete(c echo.Context) error {
	filename := c.Param("filename")
	if filename == "" || filename != filepath.Base(filename) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid filename")
	}

	// Remove the file first; ignore the error if it is already gone.
	_ = os.Remove(filepath.Join(a.Config.UploadsDir, filename))

	if err := a.Store.DeleteImage(filename); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleImageList(c echo.Context) error {
	images, err := a.Store.ListImages()
	if err != nil {
		return err
	}
	if images == nil {
		images = []Image{}
	}
	for i := range images {
		images[i].URL = a.imageURL(images[i].Filename)
	}
	return c.JSON(http.StatusOK, images)
}

// imageURL returns the public URL of an uploaded image, suitable for a
// post's imageUrl field.
func (a *App) imageURL(filename string) string {
	return strings.TrimSuffix(BuildURL(a.Config.SiteURL, "uploads", filename), "/")
}
