package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/ivankudzin/dochub/internal/transport/http/dto"
)

func idPath(format string, ids ...int64) string {
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return fmt.Sprintf(format, args...)
}

func idQuery(name string, id int64) url.Values {
	if id <= 0 {
		return nil
	}
	return url.Values{name: []string{strconv.FormatInt(id, 10)}}
}

func (c *Client) saveAuth(res dto.AuthResponse) error {
	tokens := Tokens{
		AccessToken:  firstNonEmpty(res.AccessToken, res.AccessTokenSnake),
		RefreshToken: firstNonEmpty(res.RefreshToken, res.RefreshTokenSnake),
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return nil
	}
	if err := c.store.Save(tokens); err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	return nil
}

func (c *Client) Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error) {
	var out dto.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", nil, req, &out)
	return out, err
}

// Confirm sets the password of a registered user and stores the issued tokens.
func (c *Client) Confirm(ctx context.Context, req dto.ConfirmRequest) (dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/confirm", nil, req, &out); err != nil {
		return dto.AuthResponse{}, err
	}
	return out, c.saveAuth(out)
}

func (c *Client) Resend(ctx context.Context, req dto.ResendRequest) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/resend", nil, req, nil)
}

func (c *Client) Login(ctx context.Context, email, password string) (dto.AuthResponse, error) {
	var out dto.AuthResponse
	req := dto.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", nil, req, &out); err != nil {
		return dto.AuthResponse{}, err
	}
	return out, c.saveAuth(out)
}

// Logout revokes the current session. Local tokens are cleared even when the
// server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/v1/user/logout", nil, nil, nil)
	if clearErr := c.store.Clear(); clearErr != nil {
		c.logger.Warn("clear tokens on logout", zap.Error(clearErr))
	}
	return err
}

func (c *Client) Me(ctx context.Context) (dto.User, error) {
	var out dto.User
	err := c.do(ctx, http.MethodGet, "/api/v1/user/me", nil, nil, &out)
	return out, err
}

func (c *Client) UserByID(ctx context.Context, id int64) (dto.User, error) {
	var out dto.User
	err := c.do(ctx, http.MethodGet, "/api/v1/user/", idQuery("id", id), nil, &out)
	return out, err
}

// UpdateProfile edits the caller's name, or another user's when userID is set
// and the caller is an administrator.
func (c *Client) UpdateProfile(ctx context.Context, userID int64, req dto.UpdateProfileRequest) (dto.User, error) {
	var out dto.User
	err := c.do(ctx, http.MethodPut, "/api/v1/user/profile", idQuery("user_id", userID), req, &out)
	return out, err
}

func (c *Client) GenerateAvatar(ctx context.Context) (dto.User, error) {
	var out dto.User
	err := c.do(ctx, http.MethodPost, "/api/v1/user/avatar/generate", nil, nil, &out)
	return out, err
}

func (c *Client) Users(ctx context.Context) (dto.UsersResponse, error) {
	var out dto.UsersResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/user/admin/users", nil, nil, &out)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/user/admin/", idQuery("id", id), nil, nil)
}

func (c *Client) ChangeRole(ctx context.Context, userID int64, roleID int) (dto.User, error) {
	var out dto.User
	req := dto.ChangeRoleRequest{RoleID: roleID}
	err := c.do(ctx, http.MethodPut, "/api/v1/user/roles/change", idQuery("user_id", userID), req, &out)
	return out, err
}

func (c *Client) Documents(ctx context.Context, categoryID int64) (dto.DocumentsResponse, error) {
	var out dto.DocumentsResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/documents", idQuery("category_id", categoryID), nil, &out)
	return out, err
}

func (c *Client) Document(ctx context.Context, id int64) (dto.Document, error) {
	var out dto.Document
	err := c.do(ctx, http.MethodGet, idPath("/api/v1/documents/%d", id), nil, nil, &out)
	return out, err
}

func (c *Client) RenameDocument(ctx context.Context, id int64, title string) (dto.Document, error) {
	var out dto.Document
	req := dto.UpdateDocumentRequest{Title: title}
	err := c.do(ctx, http.MethodPatch, idPath("/api/v1/documents/%d", id), nil, req, &out)
	return out, err
}

// CreateDocument uploads a PDF with its metadata. The body is buffered so the
// request can be replayed after a token refresh.
func (c *Client) CreateDocument(ctx context.Context, meta dto.DocumentMetadata, fileName string, file io.Reader) (dto.Document, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return dto.Document{}, fmt.Errorf("encode metadata: %w", err)
	}
	if err := form.WriteField("metadata", string(rawMeta)); err != nil {
		return dto.Document{}, fmt.Errorf("write metadata: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(fileName)))
	header.Set("Content-Type", "application/pdf")
	part, err := form.CreatePart(header)
	if err != nil {
		return dto.Document{}, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return dto.Document{}, fmt.Errorf("read document: %w", err)
	}
	if err := form.Close(); err != nil {
		return dto.Document{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/v1/documents", nil), bytes.NewReader(buf.Bytes()))
	if err != nil {
		return dto.Document{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var out dto.Document
	if err := c.send(req, &out); err != nil {
		return dto.Document{}, err
	}
	return out, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/v1/documents/%d", id), nil, nil, nil)
}

// DocumentURL resolves the short-lived download link of a document.
func (c *Client) DocumentURL(ctx context.Context, id int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(idPath("/api/v1/documents/%d/file", id), nil), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode <= 399 {
		location := resp.Header.Get("Location")
		if location == "" {
			return "", fmt.Errorf("redirect without location")
		}
		return location, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", decodeAPIError(resp)
	}
	return "", fmt.Errorf("unexpected status %d for document file", resp.StatusCode)
}

// DownloadDocument streams the document body into w and returns the number of
// bytes written.
func (c *Client) DownloadDocument(ctx context.Context, id int64, w io.Writer) (int64, error) {
	location, err := c.DocumentURL(ctx, id)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return 0, fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.files.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download document: status %d", resp.StatusCode)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download document: %w", err)
	}
	return n, nil
}

func (c *Client) Categories(ctx context.Context) ([]dto.Category, error) {
	var out []dto.Category
	err := c.do(ctx, http.MethodGet, "/api/v1/categories", nil, nil, &out)
	return out, err
}

func (c *Client) CreateCategory(ctx context.Context, name string) (dto.Category, error) {
	var out dto.Category
	err := c.do(ctx, http.MethodPost, "/api/v1/categories", nil, dto.CreateCategoryRequest{Name: name}, &out)
	return out, err
}

func (c *Client) CategoryDocuments(ctx context.Context, id int64) (dto.CategoryDocumentsResponse, error) {
	var out dto.CategoryDocumentsResponse
	err := c.do(ctx, http.MethodGet, idPath("/api/v1/categories/%d/documents", id), nil, nil, &out)
	return out, err
}

func (c *Client) Comments(ctx context.Context, documentID int64) (dto.CommentsResponse, error) {
	var out dto.CommentsResponse
	err := c.do(ctx, http.MethodGet, idPath("/api/v1/documents/%d/comments", documentID), nil, nil, &out)
	return out, err
}

func (c *Client) AddComment(ctx context.Context, documentID int64, text string) (dto.Comment, error) {
	var out dto.Comment
	req := dto.CreateCommentRequest{Text: text}
	err := c.do(ctx, http.MethodPost, idPath("/api/v1/documents/%d/comments", documentID), nil, req, &out)
	return out, err
}

func (c *Client) DeleteComment(ctx context.Context, documentID, commentID int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/v1/documents/%d/comments/%d", documentID, commentID), nil, nil, nil)
}

// Like returns the document's like count after the call.
func (c *Client) Like(ctx context.Context, documentID int64) (int, error) {
	return c.likes(ctx, http.MethodPut, idPath("/api/v1/documents/%d/like", documentID))
}

func (c *Client) Unlike(ctx context.Context, documentID int64) (int, error) {
	return c.likes(ctx, http.MethodDelete, idPath("/api/v1/documents/%d/like", documentID))
}

func (c *Client) LikesCount(ctx context.Context, documentID int64) (int, error) {
	return c.likes(ctx, http.MethodGet, idPath("/api/v1/documents/%d/likes", documentID))
}

func (c *Client) likes(ctx context.Context, method, path string) (int, error) {
	var out dto.LikesResponse
	if err := c.do(ctx, method, path, nil, nil, &out); err != nil {
		return 0, err
	}
	return out.LikesCount, nil
}

// MarkViewed records a view. A document already viewed by the caller is not
// an error.
func (c *Client) MarkViewed(ctx context.Context, documentID int64) error {
	err := c.do(ctx, http.MethodPut, idPath("/api/v1/documents/%d/view", documentID), nil, nil, nil)
	if IsCode(err, "ALREADY_VIEWED") {
		return nil
	}
	return err
}

func (c *Client) ViewsCount(ctx context.Context, documentID int64) (int, error) {
	var out dto.ViewsResponse
	if err := c.do(ctx, http.MethodGet, idPath("/api/v1/documents/%d/views", documentID), nil, nil, &out); err != nil {
		return 0, err
	}
	return out.ViewsCount, nil
}

func (c *Client) Viewers(ctx context.Context, documentID int64) (dto.ViewersResponse, error) {
	var out dto.ViewersResponse
	err := c.do(ctx, http.MethodGet, idPath("/api/v1/documents/%d/viewers", documentID), nil, nil, &out)
	return out, err
}

func (c *Client) Roles(ctx context.Context) ([]dto.Role, error) {
	var out []dto.Role
	err := c.do(ctx, http.MethodGet, "/api/v1/roles/getall", nil, nil, &out)
	return out, err
}
