package gatewayfakes

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shoplane/storefront-core/checkout"
	"github.com/shoplane/storefront-core/gateway"
)

var _ gateway.BackendClient = (*FakeBackendClient)(nil)

// FakeBackendClient scripts the backend's gateway surface for tests.
type FakeBackendClient struct {
	lock sync.Mutex

	CreateErr error
	VerifyErr error
	StatusErr error
	Status    *gateway.PaymentStatus

	VerifyCalls int
	StatusCalls int
	LastVerify  gateway.Confirmation
	sessions    []*gateway.Session
}

func NewFakeBackendClient() *FakeBackendClient {
	return &FakeBackendClient{}
}

func (c *FakeBackendClient) CreateGatewaySession(_ context.Context, id checkout.GatewayID, amount float64) (*gateway.Session, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.CreateErr != nil {
		return nil, c.CreateErr
	}
	sess := &gateway.Session{
		GatewayID:        id,
		ExternalOrderRef: "ext-" + uuid.New().String(),
		ClientSecret:     "secret-" + uuid.New().String(),
		RedirectURL:      "https://pay.example.com/hosted/" + uuid.New().String(),
		CreatedAt:        time.Now(),
	}
	c.sessions = append(c.sessions, sess)
	return sess, nil
}

func (c *FakeBackendClient) VerifyPayment(_ context.Context, confirmation gateway.Confirmation) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.VerifyCalls++
	c.LastVerify = confirmation
	return c.VerifyErr
}

func (c *FakeBackendClient) LookupPaymentStatus(_ context.Context, externalOrderRef string) (*gateway.PaymentStatus, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.StatusCalls++
	if c.StatusErr != nil {
		return nil, c.StatusErr
	}
	return c.Status, nil
}

// LastSession returns the most recently created gateway session, or nil.
func (c *FakeBackendClient) LastSession() *gateway.Session {
	c.lock.Lock()
	defer c.lock.Unlock()
	if len(c.sessions) == 0 {
		return nil
	}
	return c.sessions[len(c.sessions)-1]
}
