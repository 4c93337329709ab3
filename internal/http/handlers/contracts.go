package handlers

import (
	"context"

	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/repository"
	"courier-dispatch/internal/service/assignment"
	"courier-dispatch/internal/service/dispatch"
	"courier-dispatch/internal/service/matching"
)

type dispatchUsecase interface {
	Create(ctx context.Context, in dispatch.CreateInput, customerID string) (*domain.Delivery, error)
	Get(ctx context.Context, id string, actor domain.AuthIdentity) (*domain.Delivery, error)
	List(ctx context.Context, actor domain.AuthIdentity) ([]domain.Delivery, error)
	ListAvailable(ctx context.Context) ([]domain.Delivery, error)
	ListActive(ctx context.Context, courierID string) ([]domain.Delivery, error)
	RecalculateCost(ctx context.Context, deliveryID string, distanceKm float64, vehicleID string) (float64, error)
}

// NewDispatchUsecase wires a dispatch Service into a dispatchUsecase.
func NewDispatchUsecase(svc *dispatch.Service) dispatchUsecase {
	return svc
}

type assignmentUsecase interface {
	Assign(ctx context.Context, deliveryID, courierID string) (*domain.Delivery, error)
	Start(ctx context.Context, deliveryID, courierID string) (*domain.Delivery, error)
	Complete(ctx context.Context, deliveryID, courierID string, actualCost *float64) (*domain.Delivery, error)
	Cancel(ctx context.Context, deliveryID string) (*domain.Delivery, error)
}

// NewAssignmentUsecase wires an assignment Coordinator into an assignmentUsecase.
func NewAssignmentUsecase(c *assignment.Coordinator) assignmentUsecase {
	return c
}

type matchingUsecase interface {
	Rank(ctx context.Context, deliveryID string) ([]domain.MatchCandidate, error)
}

// NewMatchingUsecase wires a matching Engine into a matchingUsecase.
func NewMatchingUsecase(e *matching.Engine) matchingUsecase {
	return e
}

// courierDirectory maps an authenticated user onto their courier record.
type courierDirectory interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Courier, error)
}

// NewCourierDirectory wires the courier repository into a courierDirectory.
func NewCourierDirectory(repo *repository.CourierRepo) courierDirectory {
	return repo
}

// identityDirectory reads the stored auth identity for a user.
type identityDirectory interface {
	Get(ctx context.Context, id string) (*domain.AuthIdentity, error)
}

// NewIdentityDirectory wires the identity repository into an identityDirectory.
func NewIdentityDirectory(repo *repository.IdentityRepo) identityDirectory {
	return repo
}
