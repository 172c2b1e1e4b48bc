package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"EPESPO-inventario/internal/domain"
)

// ===== Auth =====

type LoginResult struct {
	AccessToken string      `json:"access_token"`
	User        domain.User `json:"user"`
}

// Login posts the credentials. It does not touch the session; the caller
// starts it with the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	body := map[string]string{"correo": email, "contrasena": password}
	err := c.send(ctx, http.MethodPost, "/login", body, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/logout", nil, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.send(ctx, http.MethodPost, "/forgot-password", map[string]string{"correo": email}, nil)
}

type PasswordReset struct {
	Email        string `json:"correo"`
	Code         string `json:"code"`
	Password     string `json:"contrasena"`
	Confirmation string `json:"contrasena_confirmation"`
}

func (c *Client) ResetPassword(ctx context.Context, r PasswordReset) error {
	return c.send(ctx, http.MethodPost, "/reset-password", r, nil)
}

// ===== Productos =====

func (c *Client) Assets(ctx context.Context) ([]domain.Asset, error) {
	return getList[domain.Asset](ctx, c, "/productos")
}

func (c *Client) CreateAsset(ctx context.Context, a domain.Asset) (domain.Asset, error) {
	var out domain.Asset
	err := c.send(ctx, http.MethodPost, "/productos", a, &out)
	return out, err
}

func (c *Client) UpdateAsset(ctx context.Context, a domain.Asset) (domain.Asset, error) {
	var out domain.Asset
	err := c.send(ctx, http.MethodPut, fmt.Sprintf("/productos/%d", a.ID), a, &out)
	return out, err
}

// ===== Responsables =====

func (c *Client) Responsibles(ctx context.Context) ([]domain.Responsible, error) {
	return getList[domain.Responsible](ctx, c, "/responsables")
}

func (c *Client) CreateResponsible(ctx context.Context, d domain.ResponsibleDraft) (domain.Responsible, error) {
	var out domain.Responsible
	err := c.send(ctx, http.MethodPost, "/responsables", d, &out)
	return out, err
}

func (c *Client) UpdateResponsible(ctx context.Context, id domain.ID, d domain.ResponsibleDraft) (domain.Responsible, error) {
	var out domain.Responsible
	err := c.send(ctx, http.MethodPut, fmt.Sprintf("/responsables/%d", id), d, &out)
	return out, err
}

func (c *Client) DeleteResponsible(ctx context.Context, id domain.ID) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/responsables/%d", id), nil, nil)
}

// ===== Departamentos =====

func (c *Client) Departments(ctx context.Context) ([]domain.Department, error) {
	return getList[domain.Department](ctx, c, "/departamentos")
}

func (c *Client) CreateDepartment(ctx context.Context, d domain.DepartmentDraft) (domain.Department, error) {
	var out domain.Department
	err := c.send(ctx, http.MethodPost, "/departamentos", d, &out)
	return out, err
}

func (c *Client) UpdateDepartment(ctx context.Context, id domain.ID, d domain.DepartmentDraft) (domain.Department, error) {
	var out domain.Department
	err := c.send(ctx, http.MethodPut, fmt.Sprintf("/departamentos/%d", id), d, &out)
	return out, err
}

func (c *Client) DeleteDepartment(ctx context.Context, id domain.ID) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/departamentos/%d", id), nil, nil)
}

// ===== Usuarios =====

func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	return getList[domain.User](ctx, c, "/usuarios")
}

func (c *Client) CreateUser(ctx context.Context, d domain.UserDraft) (domain.User, error) {
	var out domain.User
	err := c.send(ctx, http.MethodPost, "/usuarios", d, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, id domain.ID, d domain.UserDraft) (domain.User, error) {
	var out domain.User
	err := c.send(ctx, http.MethodPut, fmt.Sprintf("/usuarios/%d", id), d, &out)
	return out, err
}

// ===== Custodia =====

// CurrentCustody is the server-derived snapshot of who holds what.
func (c *Client) CurrentCustody(ctx context.Context) ([]domain.CustodyRow, error) {
	return getList[domain.CustodyRow](ctx, c, "/producto-asignaciones-actuales")
}

func (c *Client) Assignments(ctx context.Context) ([]domain.Assignment, error) {
	return getList[domain.Assignment](ctx, c, "/asignaciones")
}

func (c *Client) CreateAssignment(ctx context.Context, p domain.AssignmentPayload, idempotencyKey string) (domain.Assignment, error) {
	var out domain.Assignment
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/asignaciones",
		body:   p,
		header: idempotency(idempotencyKey),
	}, &out)
	return out, err
}

func (c *Client) UpdateAssignment(ctx context.Context, id domain.ID, p domain.AssignmentPayload) (domain.Assignment, error) {
	var out domain.Assignment
	err := c.send(ctx, http.MethodPut, fmt.Sprintf("/asignaciones/%d", id), p, &out)
	return out, err
}

func (c *Client) VoidAssignment(ctx context.Context, id domain.ID, reason string) error {
	return c.send(ctx, http.MethodPut, fmt.Sprintf("/asignaciones/%d", id), domain.VoidPayload{Active: false, Reason: reason}, nil)
}

func (c *Client) Receptions(ctx context.Context) ([]domain.Reception, error) {
	return getList[domain.Reception](ctx, c, "/recepciones")
}

func (c *Client) CreateReception(ctx context.Context, p domain.ReceptionPayload, idempotencyKey string) (domain.Reception, error) {
	var out domain.Reception
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/recepciones",
		body:   p,
		header: idempotency(idempotencyKey),
	}, &out)
	return out, err
}

func (c *Client) UpdateReception(ctx context.Context, id domain.ID, p domain.ReceptionPayload) (domain.Reception, error) {
	var out domain.Reception
	err := c.send(ctx, http.MethodPut, fmt.Sprintf("/recepciones/%d", id), p, &out)
	return out, err
}

func (c *Client) VoidReception(ctx context.Context, id domain.ID, reason string) error {
	return c.send(ctx, http.MethodPut, fmt.Sprintf("/recepciones/%d", id), domain.VoidPayload{Active: false, Reason: reason}, nil)
}

func idempotency(key string) http.Header {
	if key == "" {
		return nil
	}
	h := http.Header{}
	h.Set(IdempotencyHeader, key)
	return h
}

// ===== Actas =====

func (c *Client) Actas(ctx context.Context) ([]domain.Acta, error) {
	return getList[domain.Acta](ctx, c, "/actas")
}

func (c *Client) GenerateAssignmentActa(ctx context.Context, assignmentID domain.ID) (domain.Acta, error) {
	var out domain.Acta
	err := c.send(ctx, http.MethodPost, "/actas/generar", map[string]domain.ID{"asignacion_id": assignmentID}, &out)
	return out, err
}

func (c *Client) GenerateReceptionActa(ctx context.Context, receptionID domain.ID) (domain.Acta, error) {
	var out domain.Acta
	err := c.send(ctx, http.MethodPost, "/actas/generar-recepcion", map[string]domain.ID{"recepcion_id": receptionID}, &out)
	return out, err
}

type UploadResult struct {
	Path string `json:"archivo_pdf_path"`
}

// UploadActaPDF sends the signed scan as the multipart field "pdf".
func (c *Client) UploadActaPDF(ctx context.Context, id domain.ID, filename string, content io.Reader) (UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("pdf", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return UploadResult{}, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("build upload: %w", err)
	}

	var out UploadResult
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        fmt.Sprintf("/actas/%d/subir-pdf", id),
		raw:         &buf,
		contentType: mw.FormDataContentType(),
	}, &out)
	return out, err
}
