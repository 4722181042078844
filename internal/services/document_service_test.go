package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellness-service/internal/storage"
)

func newTestDocuments(t *testing.T) *DocumentService {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	return NewDocumentService(NewHTMLRenderer(), store, testLogger())
}

func TestGenerateInvoice(t *testing.T) {
	docs := newTestDocuments(t)
	ctx := context.Background()

	err := docs.GenerateInvoice(ctx, "bills/test.html", InvoiceDocument{
		Reference:   "BILL-1",
		BilledTo:    "Acme Corp",
		Description: "Annual subscription",
		TotalTTC:    600.00,
		TotalHT:     500.00,
		TVA:         100.00,
		Date:        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	data, err := docs.Fetch(ctx, "bills/test.html")
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "BILL-1")
	assert.Contains(t, html, "Acme Corp")
	assert.Contains(t, html, "600.00")
	assert.Contains(t, html, "500.00")
	assert.Contains(t, html, "2025-03-01")
}

func TestGenerateContractSignatures(t *testing.T) {
	docs := newTestDocuments(t)
	ctx := context.Background()

	unsigned := ContractDocument{
		CompanyName: "Acme Corp",
		PackName:    "Growth",
		Date:        time.Now(),
	}
	require.NoError(t, docs.GenerateContract(ctx, "contracts/a.html", unsigned))
	data, err := docs.Fetch(ctx, "contracts/a.html")
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Company signature")

	signature := "Jane Doe"
	signed := unsigned
	signed.CompanySignature = &signature
	require.NoError(t, docs.GenerateContract(ctx, "contracts/a.html", signed))
	data, err = docs.Fetch(ctx, "contracts/a.html")
	require.NoError(t, err)
	assert.Contains(t, string(data), "Jane Doe")
}

func TestFetchMissingDocument(t *testing.T) {
	docs := newTestDocuments(t)
	_, err := docs.Fetch(context.Background(), "bills/"+uuid.NewString()+".html")
	_, ok := IsNotFoundError(err)
	assert.True(t, ok)
}

func TestGenerateEstimateEscapesContent(t *testing.T) {
	docs := newTestDocuments(t)
	ctx := context.Background()

	err := docs.GenerateEstimate(ctx, "estimates/x.html", EstimateDocument{
		EstimateID:  uuid.New(),
		CompanyName: "<script>alert(1)</script>",
		PackName:    "Starter",
		Employees:   5,
		Amount:      600,
		Date:        time.Now(),
	})
	require.NoError(t, err)

	data, err := docs.Fetch(ctx, "estimates/x.html")
	require.NoError(t, err)
	assert.NotContains(t, string(data), "<script>")
}
