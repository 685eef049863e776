package usecase

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"wallet-service/src/internal/entity"
	"wallet-service/src/internal/gateway/paynow"
	"wallet-service/src/internal/model"
	"wallet-service/src/pkg/log"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPaymentRepo struct {
	payments    map[string]*entity.Payment
	seq         int
	markPaidErr error
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: make(map[string]*entity.Payment)}
}

func (r *memPaymentRepo) Create(ctx context.Context, payment *entity.Payment) error {
	if payment.ID == "" {
		r.seq++
		payment.ID = fmt.Sprintf("payment-%d", r.seq)
	}
	payment.CreatedAt = time.Now().UTC()
	copied := *payment
	r.payments[payment.ID] = &copied
	return nil
}

func (r *memPaymentRepo) FindByID(ctx context.Context, id string) (*entity.Payment, error) {
	payment, ok := r.payments[id]
	if !ok {
		return nil, entity.ErrPaymentNotFound
	}
	copied := *payment
	return &copied, nil
}

func (r *memPaymentRepo) FindByGatewayReference(ctx context.Context, reference string) (*entity.Payment, error) {
	for _, payment := range r.payments {
		if payment.GatewayReference != nil && *payment.GatewayReference == reference {
			copied := *payment
			return &copied, nil
		}
	}
	return nil, entity.ErrPaymentNotFound
}

func (r *memPaymentRepo) AttachGateway(ctx context.Context, id, pollURL, redirectURL, reference string) error {
	payment, ok := r.payments[id]
	if !ok || payment.Status != entity.PaymentStatusCreated {
		return nil
	}
	payment.Status = entity.PaymentStatusSent
	payment.PollURL = &pollURL
	payment.RedirectURL = &redirectURL
	payment.GatewayReference = &reference
	return nil
}

func (r *memPaymentRepo) MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	if r.markPaidErr != nil {
		err := r.markPaidErr
		r.markPaidErr = nil
		return false, err
	}
	payment, ok := r.payments[id]
	if !ok {
		return false, nil
	}
	if payment.Status != entity.PaymentStatusCreated && payment.Status != entity.PaymentStatusSent {
		return false, nil
	}
	payment.Status = entity.PaymentStatusPaid
	at := paidAt
	payment.PaidAt = &at
	return true, nil
}

func (r *memPaymentRepo) MarkStatus(ctx context.Context, id string, from []entity.PaymentStatus, to entity.PaymentStatus) (bool, error) {
	payment, ok := r.payments[id]
	if !ok {
		return false, nil
	}
	for _, status := range from {
		if payment.Status == status {
			payment.Status = to
			return true, nil
		}
	}
	return false, nil
}

type fakeGateway struct {
	initiateErr error
	statusErr   error
	status      string
	hashValid   bool
	polls       int
}

func (g *fakeGateway) Initiate(ctx context.Context, reference, email string, amount float64, description string) (*paynow.InitiateResult, error) {
	if g.initiateErr != nil {
		return nil, g.initiateErr
	}
	return &paynow.InitiateResult{
		RedirectURL: "https://gateway.test/pay/" + reference,
		PollURL:     "https://gateway.test/poll/" + reference,
	}, nil
}

func (g *fakeGateway) CheckStatus(ctx context.Context, pollURL string) (*paynow.StatusResult, error) {
	g.polls++
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	return &paynow.StatusResult{
		Status: g.status,
		Paid:   g.status == paynow.StatusPaid || g.status == paynow.StatusAwaitingDelivery,
	}, nil
}

func (g *fakeGateway) VerifyHash(values url.Values) bool {
	return g.hashValid
}

type memDeduper struct {
	keys map[string]string
}

func newMemDeduper() *memDeduper {
	return &memDeduper{keys: make(map[string]string)}
}

func (d *memDeduper) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	var found int64
	for _, key := range keys {
		if _, ok := d.keys[key]; ok {
			found++
		}
	}
	return redis.NewIntResult(found, nil)
}

func (d *memDeduper) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	d.keys[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func newPaymentUseCase(repo *memPaymentRepo, gateway *fakeGateway) (*PaymentUseCase, *memNotifier) {
	notifier := &memNotifier{}
	useCase := NewPaymentUseCase(
		log.Log{},
		newTestValidator(),
		newTestConfig(),
		repo,
		gateway,
		nil,
		notifier,
		nil,
	)
	return useCase, notifier
}

func initiatedPayment(t *testing.T, useCase *PaymentUseCase) string {
	t.Helper()

	result := useCase.Initiate(context.Background(), &model.InitiatePaymentRequest{
		UserID:    "brand-1",
		BookingID: "booking-1",
		Amount:    120.50,
		Email:     "brand@example.com",
	})
	require.NoError(t, result.Error)
	return result.Data.(*model.InitiatePaymentResponse).PaymentID
}

func TestInitiatePaymentStoresGatewayHandles(t *testing.T) {
	repo := newMemPaymentRepo()
	useCase, _ := newPaymentUseCase(repo, &fakeGateway{})

	paymentID := initiatedPayment(t, useCase)

	payment := repo.payments[paymentID]
	assert.Equal(t, entity.PaymentStatusSent, payment.Status)
	require.NotNil(t, payment.PollURL)
	assert.Contains(t, *payment.PollURL, paymentID)
	require.NotNil(t, payment.GatewayReference)
	assert.Equal(t, paymentID, *payment.GatewayReference)
}

func TestInitiatePaymentGatewayFailure(t *testing.T) {
	repo := newMemPaymentRepo()
	useCase, _ := newPaymentUseCase(repo, &fakeGateway{initiateErr: fmt.Errorf("gateway down")})

	result := useCase.Initiate(context.Background(), &model.InitiatePaymentRequest{
		UserID:    "brand-1",
		BookingID: "booking-1",
		Amount:    120.50,
		Email:     "brand@example.com",
	})
	require.Error(t, result.Error)

	require.Len(t, repo.payments, 1)
	for _, payment := range repo.payments {
		assert.Equal(t, entity.PaymentStatusFailed, payment.Status)
	}
}

func TestCheckStatusReconcilesPaid(t *testing.T) {
	repo := newMemPaymentRepo()
	gateway := &fakeGateway{status: paynow.StatusPaid}
	useCase, notifier := newPaymentUseCase(repo, gateway)

	paymentID := initiatedPayment(t, useCase)

	result := useCase.CheckStatus(context.Background(), paymentID)
	require.NoError(t, result.Error)

	status := result.Data.(*model.PaymentStatusResponse)
	assert.Equal(t, string(entity.PaymentStatusPaid), status.Status)
	assert.NotNil(t, status.PaidAt)
	assert.Len(t, notifier.notifications, 1)
}

func TestCheckStatusTerminalShortCircuits(t *testing.T) {
	repo := newMemPaymentRepo()
	gateway := &fakeGateway{status: paynow.StatusPaid}
	useCase, _ := newPaymentUseCase(repo, gateway)

	paymentID := initiatedPayment(t, useCase)
	require.NoError(t, useCase.CheckStatus(context.Background(), paymentID).Error)
	pollsAfterFirst := gateway.polls

	require.NoError(t, useCase.CheckStatus(context.Background(), paymentID).Error)
	assert.Equal(t, pollsAfterFirst, gateway.polls)
}

func TestCheckStatusTimeoutLeavesPaymentUntouched(t *testing.T) {
	repo := newMemPaymentRepo()
	gateway := &fakeGateway{statusErr: entity.ErrPaymentStatusUnknown}
	useCase, _ := newPaymentUseCase(repo, gateway)

	paymentID := initiatedPayment(t, useCase)

	result := useCase.CheckStatus(context.Background(), paymentID)
	require.NoError(t, result.Error)

	status := result.Data.(*model.PaymentStatusResponse)
	assert.Equal(t, string(entity.PaymentStatusSent), status.Status)
	assert.Equal(t, entity.PaymentStatusSent, repo.payments[paymentID].Status)
}

func TestWebhookRejectsBadHash(t *testing.T) {
	repo := newMemPaymentRepo()
	useCase, _ := newPaymentUseCase(repo, &fakeGateway{hashValid: false})

	values := url.Values{}
	values.Set("reference", "payment-1")
	values.Set("status", paynow.StatusPaid)

	result := useCase.HandleWebhook(context.Background(), values)
	require.Error(t, result.Error)
}

func TestWebhookMarksPaidOnce(t *testing.T) {
	repo := newMemPaymentRepo()
	gateway := &fakeGateway{hashValid: true}
	useCase, notifier := newPaymentUseCase(repo, gateway)

	paymentID := initiatedPayment(t, useCase)

	values := url.Values{}
	values.Set("reference", paymentID)
	values.Set("status", paynow.StatusPaid)

	require.NoError(t, useCase.HandleWebhook(context.Background(), values).Error)
	assert.Equal(t, entity.PaymentStatusPaid, repo.payments[paymentID].Status)
	assert.Len(t, notifier.notifications, 1)

	// redelivery is a no-op thanks to the status guard
	require.NoError(t, useCase.HandleWebhook(context.Background(), values).Error)
	assert.Len(t, notifier.notifications, 1)
}

func TestWebhookRetriesAfterTransientStoreFailure(t *testing.T) {
	repo := newMemPaymentRepo()
	gateway := &fakeGateway{hashValid: true}
	useCase, notifier := newPaymentUseCase(repo, gateway)
	dedup := newMemDeduper()
	useCase.Redis = dedup

	paymentID := initiatedPayment(t, useCase)

	values := url.Values{}
	values.Set("reference", paymentID)
	values.Set("status", paynow.StatusPaid)

	// the store fails once; the delivery must stay retryable
	repo.markPaidErr = fmt.Errorf("deadlock")
	require.Error(t, useCase.HandleWebhook(context.Background(), values).Error)
	assert.Empty(t, dedup.keys)
	assert.Equal(t, entity.PaymentStatusSent, repo.payments[paymentID].Status)

	require.NoError(t, useCase.HandleWebhook(context.Background(), values).Error)
	assert.Equal(t, entity.PaymentStatusPaid, repo.payments[paymentID].Status)
	assert.Len(t, dedup.keys, 1)
	assert.Len(t, notifier.notifications, 1)

	// later redeliveries short-circuit on the dedup key
	require.NoError(t, useCase.HandleWebhook(context.Background(), values).Error)
	assert.Len(t, notifier.notifications, 1)
}

func TestWebhookCancelled(t *testing.T) {
	repo := newMemPaymentRepo()
	useCase, _ := newPaymentUseCase(repo, &fakeGateway{hashValid: true})

	paymentID := initiatedPayment(t, useCase)

	values := url.Values{}
	values.Set("reference", paymentID)
	values.Set("status", paynow.StatusCancelled)

	require.NoError(t, useCase.HandleWebhook(context.Background(), values).Error)
	assert.Equal(t, entity.PaymentStatusCancelled, repo.payments[paymentID].Status)
}

func TestWebhookUnknownReference(t *testing.T) {
	repo := newMemPaymentRepo()
	useCase, _ := newPaymentUseCase(repo, &fakeGateway{hashValid: true})

	values := url.Values{}
	values.Set("reference", "no-such-payment")
	values.Set("status", paynow.StatusPaid)

	result := useCase.HandleWebhook(context.Background(), values)
	require.Error(t, result.Error)
}
