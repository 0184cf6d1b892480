package form

import (
	"context"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"yatube/internal/model"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize bounds uploaded post images.
const MaxImageSize = 5 << 20

// MsgImageTooLarge is reported for images over MaxImageSize.
var MsgImageTooLarge = fmt.Sprintf("Ensure the image is at most %d MB.", MaxImageSize>>20)

const (
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	msgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
)

// GroupChecker reports whether a group id exists.
type GroupChecker interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

// PostForm carries the text, group and image of a post being created or edited.
type PostForm struct {
	Text       string                `form:"text" json:"text" validate:"required"`
	Group      string                `form:"group" json:"group"`
	ClearImage string                `form:"image-clear" json:"-"`
	Image      *multipart.FileHeader `form:"-" json:"-"`
	Errors     Errors                `form:"-" json:"errors,omitempty"`

	groupID *uint64
}

// NewPostFormFromPost prefills the form for editing.
func NewPostFormFromPost(p *model.Post) *PostForm {
	f := &PostForm{Text: p.Text}
	if p.GroupID != nil {
		f.Group = strconv.FormatUint(*p.GroupID, 10)
	}
	return f
}

// Validate cleans the bound fields. Lookup failures are returned as errors;
// field problems are collected in f.Errors and reported by the bool.
func (f *PostForm) Validate(ctx context.Context, groups GroupChecker) (bool, error) {
	f.Text = strings.TrimSpace(f.Text)
	f.Group = strings.TrimSpace(f.Group)
	f.Errors = check(f)
	f.groupID = nil

	if f.Group != "" {
		id, err := strconv.ParseUint(f.Group, 10, 64)
		if err != nil || id == 0 {
			f.Errors.Add("group", msgInvalidChoice)
		} else {
			ok, err := groups.Exists(ctx, id)
			if err != nil {
				return false, fmt.Errorf("check group %d: %w", id, err)
			}
			if !ok {
				f.Errors.Add("group", msgInvalidChoice)
			} else {
				f.groupID = &id
			}
		}
	}

	if f.Image != nil {
		if msg := checkImage(f.Image); msg != "" {
			f.Errors.Add("image", msg)
		}
	}
	return len(f.Errors) == 0, nil
}

// Apply copies the cleaned text and group onto p. Images are handled by the
// caller because they need storage.
func (f *PostForm) Apply(p *model.Post) {
	p.Text = f.Text
	p.GroupID = f.groupID
	p.Group = nil
}

// WantsImageCleared reports whether the existing image should be removed.
func (f *PostForm) WantsImageCleared() bool {
	return f.ClearImage != "" && f.Image == nil
}

func checkImage(fh *multipart.FileHeader) string {
	if fh.Size > MaxImageSize {
		return MsgImageTooLarge
	}
	src, err := fh.Open()
	if err != nil {
		return msgInvalidImage
	}
	defer src.Close()
	mt, err := mimetype.DetectReader(src)
	if err != nil || !strings.HasPrefix(mt.String(), "image/") {
		return msgInvalidImage
	}
	return ""
}
