package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"wallet-service/src/internal/entity"
	"wallet-service/src/internal/gateway/paynow"
	"wallet-service/src/internal/model"
	"wallet-service/src/internal/model/converter"
	httpError "wallet-service/src/pkg/http-error"
	"wallet-service/src/pkg/log"
	"wallet-service/src/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

const TaskPollPaymentStatus = "payment:poll-status"

type paymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id string) (*entity.Payment, error)
	FindByGatewayReference(ctx context.Context, reference string) (*entity.Payment, error)
	AttachGateway(ctx context.Context, id, pollURL, redirectURL, reference string) error
	MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error)
	MarkStatus(ctx context.Context, id string, from []entity.PaymentStatus, to entity.PaymentStatus) (bool, error)
}

type paymentGateway interface {
	Initiate(ctx context.Context, reference, email string, amount float64, description string) (*paynow.InitiateResult, error)
	CheckStatus(ctx context.Context, pollURL string) (*paynow.StatusResult, error)
	VerifyHash(values url.Values) bool
}

type pollTaskPayload struct {
	PaymentID string `json:"payment_id"`
}

// reconcileDeduper is the slice of redis.UniversalClient the reconcile
// path needs.
type reconcileDeduper interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type PaymentUseCase struct {
	Log               log.Log
	Validate          *validator.Validate
	Config            *viper.Viper
	PaymentRepository paymentRepository
	Gateway           paymentGateway
	Redis             reconcileDeduper
	Producer          walletNotifier
	AsynqClient       *asynq.Client
}

func NewPaymentUseCase(
	logger log.Log,
	validate *validator.Validate,
	cfg *viper.Viper,
	paymentRepo paymentRepository,
	gateway paymentGateway,
	redisClient redis.UniversalClient,
	producer walletNotifier,
	asynqClient *asynq.Client,
) *PaymentUseCase {
	return &PaymentUseCase{
		Log:               logger,
		Validate:          validate,
		Config:            cfg,
		PaymentRepository: paymentRepo,
		Gateway:           gateway,
		Redis:             redisClient,
		Producer:          producer,
		AsynqClient:       asynqClient,
	}
}

// Initiate creates a hosted payment for a booking deposit and returns the
// browser redirect plus the poll URL persisted on the payment row.
func (c *PaymentUseCase) Initiate(ctx context.Context, request *model.InitiatePaymentRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("payment-usecase", errObj.Message, "Initiate", utils.ConvertString(request))
		return result
	}

	payment := &entity.Payment{
		BookingID: request.BookingID,
		UserID:    request.UserID,
		Amount:    utils.RoundCents(request.Amount),
		Email:     request.Email,
		Status:    entity.PaymentStatusCreated,
	}
	if err := c.PaymentRepository.Create(ctx, payment); err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to create payment: %v", err)
		result.Error = errObj
		c.Log.Error("payment-usecase", errObj.Message, "Initiate", request.BookingID)
		return result
	}

	description := fmt.Sprintf("Booking deposit %s", request.BookingID)
	initiated, err := c.Gateway.Initiate(ctx, payment.ID, request.Email, payment.Amount, description)
	if err != nil {
		if _, markErr := c.PaymentRepository.MarkStatus(ctx, payment.ID,
			[]entity.PaymentStatus{entity.PaymentStatusCreated}, entity.PaymentStatusFailed); markErr != nil {
			c.Log.Error("payment-usecase", fmt.Sprintf("failed to mark payment failed: %v", markErr), "Initiate", payment.ID)
		}
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("gateway initiation failed: %v", err)
		result.Error = errObj
		c.Log.Error("payment-usecase", errObj.Message, "Initiate", payment.ID)
		return result
	}

	if err := c.PaymentRepository.AttachGateway(ctx, payment.ID, initiated.PollURL, initiated.RedirectURL, payment.ID); err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to persist gateway handles: %v", err)
		result.Error = errObj
		c.Log.Error("payment-usecase", errObj.Message, "Initiate", payment.ID)
		return result
	}

	c.enqueuePoll(payment.ID)

	result.Data = &model.InitiatePaymentResponse{
		PaymentID:   payment.ID,
		RedirectURL: initiated.RedirectURL,
		PollURL:     initiated.PollURL,
	}
	return result
}

// CheckStatus performs one synchronous round-trip to the gateway. A
// timeout leaves the payment untouched; terminal rows short-circuit.
func (c *PaymentUseCase) CheckStatus(ctx context.Context, paymentID string) utils.Result {
	var result utils.Result

	payment, err := c.PaymentRepository.FindByID(ctx, paymentID)
	if err != nil {
		errObj := httpError.NewNotFound()
		errObj.Message = entity.ErrPaymentNotFound.Error()
		result.Error = errObj
		return result
	}

	if payment.Status == entity.PaymentStatusPaid ||
		payment.Status == entity.PaymentStatusCancelled ||
		payment.Status == entity.PaymentStatusFailed {
		result.Data = converter.PaymentToStatusResponse(payment)
		return result
	}

	if payment.PollURL == nil {
		result.Data = converter.PaymentToStatusResponse(payment)
		return result
	}

	status, err := c.Gateway.CheckStatus(ctx, *payment.PollURL)
	if err == entity.ErrPaymentStatusUnknown {
		c.Log.Warn("payment-usecase", "gateway poll timed out, status unknown", "CheckStatus", payment.ID)
		result.Data = converter.PaymentToStatusResponse(payment)
		return result
	}
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("gateway poll failed: %v", err)
		result.Error = errObj
		c.Log.Error("payment-usecase", errObj.Message, "CheckStatus", payment.ID)
		return result
	}

	if err := c.Reconcile(ctx, payment.ID, status.Status); err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("reconcile failed: %v", err)
		result.Error = errObj
		c.Log.Error("payment-usecase", errObj.Message, "CheckStatus", payment.ID)
		return result
	}

	refreshed, err := c.PaymentRepository.FindByID(ctx, paymentID)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to reload payment: %v", err)
		result.Error = errObj
		return result
	}

	result.Data = converter.PaymentToStatusResponse(refreshed)
	return result
}

// HandleWebhook verifies the gateway hash and feeds the notification into
// the same reconcile path the poller uses.
func (c *PaymentUseCase) HandleWebhook(ctx context.Context, values url.Values) utils.Result {
	var result utils.Result

	if !c.Gateway.VerifyHash(values) {
		errObj := httpError.NewUnauthorized()
		errObj.Message = "invalid webhook hash"
		result.Error = errObj
		c.Log.Error("payment-usecase", errObj.Message, "HandleWebhook", values.Get("reference"))
		return result
	}

	reference := values.Get("reference")
	if reference == "" {
		errObj := httpError.NewBadRequest()
		errObj.Message = "missing payment reference"
		result.Error = errObj
		return result
	}

	if err := c.Reconcile(ctx, reference, values.Get("status")); err != nil {
		if err == entity.ErrPaymentNotFound {
			errObj := httpError.NewNotFound()
			errObj.Message = entity.ErrPaymentNotFound.Error()
			result.Error = errObj
			return result
		}
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("reconcile failed: %v", err)
		result.Error = errObj
		c.Log.Error("payment-usecase", errObj.Message, "HandleWebhook", reference)
		return result
	}

	result.Data = map[string]string{"reference": reference}
	return result
}

// Reconcile is the single idempotent state transition shared by poll and
// webhook. Repeated delivery for the same reference is a no-op: a redis
// dedup key short-circuits, and the status-guarded update backs it up.
func (c *PaymentUseCase) Reconcile(ctx context.Context, reference, gatewayStatus string) error {
	payment, err := c.PaymentRepository.FindByGatewayReference(ctx, reference)
	if err != nil {
		return err
	}

	switch gatewayStatus {
	case paynow.StatusPaid, paynow.StatusAwaitingDelivery:
		key := "PAYMENT:RECONCILED:" + reference
		if c.Redis != nil {
			seen, err := c.Redis.Exists(ctx, key).Result()
			if err != nil {
				c.Log.Warn("payment-usecase", fmt.Sprintf("dedup check failed, relying on status guard: %v", err), "Reconcile", reference)
			} else if seen > 0 {
				return nil
			}
		}

		flipped, err := c.PaymentRepository.MarkPaid(ctx, payment.ID, time.Now().UTC())
		if err != nil {
			return err
		}
		if !flipped {
			return nil
		}

		// the dedup key is written only after the flip commits; a failed
		// MarkPaid stays retryable on the next delivery
		if c.Redis != nil {
			if err := c.Redis.Set(ctx, key, gatewayStatus, 24*time.Hour).Err(); err != nil {
				c.Log.Warn("payment-usecase", fmt.Sprintf("failed to set dedup key: %v", err), "Reconcile", reference)
			}
		}

		if c.Producer != nil {
			err = c.Producer.SendNotification(newNotification(payment.UserID,
				"Payment received",
				fmt.Sprintf("Your payment of %.2f for booking %s was received.", payment.Amount, payment.BookingID),
				"payment"))
			if err != nil {
				c.Log.Error("payment-usecase", fmt.Sprintf("failed to publish notification: %v", err), "Reconcile", reference)
			}
		}
		c.Log.Info("payment-usecase", "payment reconciled as paid", "Reconcile", reference)

	case paynow.StatusCancelled:
		if _, err := c.PaymentRepository.MarkStatus(ctx, payment.ID,
			[]entity.PaymentStatus{entity.PaymentStatusCreated, entity.PaymentStatusSent},
			entity.PaymentStatusCancelled); err != nil {
			return err
		}
		c.Log.Info("payment-usecase", "payment reconciled as cancelled", "Reconcile", reference)

	default:
		// Created / Sent and anything unrecognized: nothing to transition
	}

	return nil
}

// HandlePollTask is the scheduled poll for payments whose webhook never
// arrived. Non-terminal payments are re-enqueued.
func (c *PaymentUseCase) HandlePollTask(ctx context.Context, task *asynq.Task) error {
	var payload pollTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	result := c.CheckStatus(ctx, payload.PaymentID)
	if result.Error != nil {
		return result.Error
	}

	if status, ok := result.Data.(*model.PaymentStatusResponse); ok {
		if status.Status == string(entity.PaymentStatusCreated) || status.Status == string(entity.PaymentStatusSent) {
			c.enqueuePoll(payload.PaymentID)
		}
	}
	return nil
}

func (c *PaymentUseCase) enqueuePoll(paymentID string) {
	if c.AsynqClient == nil {
		return
	}

	delay := c.Config.GetDuration("paynow.poll_interval")
	if delay == 0 {
		delay = 30 * time.Second
	}

	payload, err := json.Marshal(pollTaskPayload{PaymentID: paymentID})
	if err != nil {
		c.Log.Error("payment-usecase", fmt.Sprintf("failed to marshal poll payload: %v", err), "enqueuePoll", paymentID)
		return
	}

	task := asynq.NewTask(TaskPollPaymentStatus, payload)
	if _, err := c.AsynqClient.Enqueue(task, asynq.ProcessIn(delay), asynq.MaxRetry(3)); err != nil {
		c.Log.Error("payment-usecase", fmt.Sprintf("failed to enqueue poll task: %v", err), "enqueuePoll", paymentID)
	}
}
