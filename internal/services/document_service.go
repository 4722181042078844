package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wellness-service/internal/storage"
)

// Renderer turns a named document template and its data into final bytes.
// PDF rasterization is an external concern; the default renderer emits HTML.
type Renderer interface {
	Render(ctx context.Context, name string, data interface{}) ([]byte, error)
}

// EstimateDocument is the data rendered into an estimate
type EstimateDocument struct {
	EstimateID  uuid.UUID
	CompanyName string
	PackName    string
	Employees   int
	Amount      float64
	Date        time.Time
	SignedAt    *time.Time
}

// ContractDocument is the data rendered into a contract, with whichever
// signatures exist at render time
type ContractDocument struct {
	CompanyName      string
	PackName         string
	Date             time.Time
	CompanySignature *string
	AdminSignature   *string
	SignatureDate    *time.Time
}

// InvoiceDocument is the data rendered into a bill or appointment invoice
type InvoiceDocument struct {
	Reference   string
	BilledTo    string
	Description string
	TotalTTC    float64
	TotalHT     float64
	TVA         float64
	Date        time.Time
}

// ReceiptDocument is the data rendered into a donation receipt
type ReceiptDocument struct {
	NGOName     string
	DonorName   string
	Amount      float64
	Description string
	Date        time.Time
}

var documentTemplates = template.Must(template.New("documents").Parse(`
{{define "estimate"}}<html><body>
<h1>Estimate {{.EstimateID}}</h1>
<p>Company: {{.CompanyName}}</p>
<p>Pack: {{.PackName}} for {{.Employees}} employees</p>
<p>Total: {{printf "%.2f" .Amount}} EUR TTC</p>
<p>Issued: {{.Date.Format "2006-01-02"}}</p>
{{if .SignedAt}}<p>Signed: {{.SignedAt.Format "2006-01-02"}}</p>{{end}}
</body></html>{{end}}

{{define "contract"}}<html><body>
<h1>Subscription contract</h1>
<p>Company: {{.CompanyName}}</p>
<p>Pack: {{.PackName}}</p>
<p>Issued: {{.Date.Format "2006-01-02"}}</p>
{{if .CompanySignature}}<p>Company signature: {{.CompanySignature}}</p>{{end}}
{{if .AdminSignature}}<p>Administrator signature: {{.AdminSignature}}</p>{{end}}
{{if .SignatureDate}}<p>Signature date: {{.SignatureDate.Format "2006-01-02"}}</p>{{end}}
</body></html>{{end}}

{{define "invoice"}}<html><body>
<h1>Invoice {{.Reference}}</h1>
<p>Billed to: {{.BilledTo}}</p>
<p>{{.Description}}</p>
<p>Total HT: {{printf "%.2f" .TotalHT}} EUR</p>
<p>TVA: {{printf "%.2f" .TVA}} EUR</p>
<p>Total TTC: {{printf "%.2f" .TotalTTC}} EUR</p>
<p>Issued: {{.Date.Format "2006-01-02"}}</p>
</body></html>{{end}}

{{define "receipt"}}<html><body>
<h1>Donation receipt</h1>
<p>NGO: {{.NGOName}}</p>
<p>Donor: {{.DonorName}}</p>
<p>Amount: {{printf "%.2f" .Amount}} EUR</p>
<p>{{.Description}}</p>
<p>Date: {{.Date.Format "2006-01-02"}}</p>
</body></html>{{end}}
`))

// HTMLRenderer renders documents as self-contained HTML
type HTMLRenderer struct{}

// NewHTMLRenderer creates the default renderer
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{}
}

// Render executes the named template
func (r *HTMLRenderer) Render(ctx context.Context, name string, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := documentTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// DocumentService generates and stores document artifacts
type DocumentService struct {
	renderer Renderer
	store    storage.Store
	logger   *logrus.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(renderer Renderer, store storage.Store, logger *logrus.Logger) *DocumentService {
	return &DocumentService{renderer: renderer, store: store, logger: logger}
}

func (s *DocumentService) render(ctx context.Context, kind, filename string, data interface{}) error {
	content, err := s.renderer.Render(ctx, kind, data)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, filename, content); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"kind": kind,
		"file": filename,
	}).Info("document generated")
	return nil
}

// GenerateEstimate renders an estimate artifact under the given filename
func (s *DocumentService) GenerateEstimate(ctx context.Context, filename string, doc EstimateDocument) error {
	return s.render(ctx, "estimate", filename, doc)
}

// GenerateContract renders a contract artifact, overwriting the previous
// version when signatures are added
func (s *DocumentService) GenerateContract(ctx context.Context, filename string, doc ContractDocument) error {
	return s.render(ctx, "contract", filename, doc)
}

// GenerateInvoice renders an invoice artifact
func (s *DocumentService) GenerateInvoice(ctx context.Context, filename string, doc InvoiceDocument) error {
	return s.render(ctx, "invoice", filename, doc)
}

// GenerateReceipt renders a donation receipt artifact
func (s *DocumentService) GenerateReceipt(ctx context.Context, filename string, doc ReceiptDocument) error {
	return s.render(ctx, "receipt", filename, doc)
}

// Fetch returns a stored artifact for download
func (s *DocumentService) Fetch(ctx context.Context, filename string) ([]byte, error) {
	exists, err := s.store.Exists(ctx, filename)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, NewNotFoundError("document", "document not found")
	}
	return s.store.Get(ctx, filename)
}
