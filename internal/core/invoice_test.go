package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/saasadmin/internal/model"
)

func pendingInvoice() model.Invoice {
	return model.Invoice{
		ID: "inv_1", Number: "INV-202603-00001", TenantID: validID, TenantName: "Acme",
		AmountCents: 4900, Currency: "USD", Status: model.InvoicePending,
		IssuedAt: fixedTime, DueAt: fixedTime.AddDate(0, 0, 30),
	}
}

func TestInvoiceService_Create(t *testing.T) {
	db := &mockDB{}
	svc := NewInvoiceService(db, nil)
	ctx := context.Background()

	db.On("QueryRow", ctx, "SELECT nextval('invoice_number_seq')", []any(nil)).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*(dest[0].(*int64)) = 42
			return nil
		}})
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(tag("INSERT 0 1"), nil)

	inv := &model.Invoice{TenantID: validID, AmountCents: 1500, IssuedAt: fixedTime}
	require.NoError(t, svc.Create(ctx, inv))
	assert.Equal(t, "INV-202603-00042", inv.Number)
	assert.Equal(t, model.InvoicePending, inv.Status)
	assert.Equal(t, fixedTime.AddDate(0, 0, 30), inv.DueAt)
	assert.Equal(t, "USD", inv.Currency)
	db.AssertExpectations(t)
}

func TestInvoiceService_Create_Invalid(t *testing.T) {
	svc := NewInvoiceService(&mockDB{}, nil)

	assert.ErrorIs(t, svc.Create(context.Background(), &model.Invoice{AmountCents: 1}), ErrInvalidInput)
	assert.ErrorIs(t, svc.Create(context.Background(), &model.Invoice{TenantID: validID}), ErrInvalidInput)
	assert.ErrorIs(t, svc.Create(context.Background(), &model.Invoice{
		TenantID: validID, AmountCents: 1, IssuedAt: fixedTime, DueAt: fixedTime.Add(-time.Hour),
	}), ErrInvalidInput)
}

func TestInvoiceService_SetStatus_Paid(t *testing.T) {
	db := &mockDB{}
	pub := &recordingPublisher{}
	svc := NewInvoiceService(db, pub)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"inv_1"}).
		Return(&mockRow{scanFunc: invoiceScan(pendingInvoice())})
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(tag("UPDATE 1"), nil)

	inv, err := svc.SetStatus(ctx, "inv_1", model.InvoicePaid)
	require.NoError(t, err)
	assert.Equal(t, model.InvoicePaid, inv.Status)
	require.NotNil(t, inv.PaidAt)
	assert.Equal(t, []string{model.EventInvoicePaid}, pub.Events())
}

func TestInvoiceService_SetStatus_Terminal(t *testing.T) {
	db := &mockDB{}
	svc := NewInvoiceService(db, nil)
	ctx := context.Background()

	paid := pendingInvoice()
	paid.Status = model.InvoicePaid
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"inv_1"}).
		Return(&mockRow{scanFunc: invoiceScan(paid)})

	_, err := svc.SetStatus(ctx, "inv_1", model.InvoiceCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_SetStatus_ConcurrentChange(t *testing.T) {
	db := &mockDB{}
	pub := &recordingPublisher{}
	svc := NewInvoiceService(db, pub)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"inv_1"}).
		Return(&mockRow{scanFunc: invoiceScan(pendingInvoice())})
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(tag("UPDATE 0"), nil)

	_, err := svc.SetStatus(ctx, "inv_1", model.InvoiceOverdue)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Empty(t, pub.Events())
}

func TestInvoiceService_Update_OnlyPending(t *testing.T) {
	db := &mockDB{}
	svc := NewInvoiceService(db, nil)
	ctx := context.Background()

	overdue := pendingInvoice()
	overdue.Status = model.InvoiceOverdue
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"inv_1"}).
		Return(&mockRow{scanFunc: invoiceScan(overdue)})

	amount := int64(100)
	_, err := svc.Update(ctx, "inv_1", &amount, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestInvoiceService_Delete_PaidIsKept(t *testing.T) {
	db := &mockDB{}
	svc := NewInvoiceService(db, nil)
	ctx := context.Background()

	paid := pendingInvoice()
	paid.Status = model.InvoicePaid
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(tag("DELETE 0"), nil)
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"inv_1"}).
		Return(&mockRow{scanFunc: invoiceScan(paid)})

	assert.ErrorIs(t, svc.Delete(ctx, "inv_1"), ErrInvalidTransition)
}

func TestInvoiceService_MarkOverdue(t *testing.T) {
	db := &mockDB{}
	pub := &recordingPublisher{}
	svc := NewInvoiceService(db, pub)
	ctx := context.Background()

	scan := func(id string) func(dest ...any) error {
		return func(dest ...any) error {
			*(dest[0].(*string)) = id
			*(dest[1].(*string)) = "INV-" + id
			*(dest[2].(*string)) = validID
			*(dest[3].(*int64)) = 100
			*(dest[4].(*string)) = "USD"
			*(dest[5].(*time.Time)) = fixedTime
			return nil
		}
	}
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(newMockRows(scan("inv_1"), scan("inv_2")), nil)

	n, err := svc.MarkOverdue(ctx, fixedTime.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{model.EventInvoiceOverdue, model.EventInvoiceOverdue}, pub.Events())
}
