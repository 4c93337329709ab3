package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"courier-dispatch/internal/apperr"
	"courier-dispatch/internal/config"
	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/logx"
	"courier-dispatch/internal/notify"
	"courier-dispatch/internal/service/cost"
)

type fakeStore struct {
	createFn       func(context.Context, *domain.Delivery) (string, error)
	getFn          func(context.Context, string) (*domain.Delivery, error)
	listByCustomer func(context.Context, string) ([]domain.Delivery, error)
	listAll        func(context.Context) ([]domain.Delivery, error)
	listAvailable  func(context.Context) ([]domain.Delivery, error)
	listActive     func(context.Context, string) ([]domain.Delivery, error)
	updateCostFn   func(context.Context, string, float64, string, float64) (bool, error)
}

func (f *fakeStore) Create(ctx context.Context, d *domain.Delivery) (string, error) {
	if f.createFn == nil {
		panic("Create not expected")
	}
	return f.createFn(ctx, d)
}

func (f *fakeStore) Get(ctx context.Context, id string) (*domain.Delivery, error) {
	return f.getFn(ctx, id)
}

func (f *fakeStore) ListByCustomer(ctx context.Context, customerID string) ([]domain.Delivery, error) {
	return f.listByCustomer(ctx, customerID)
}

func (f *fakeStore) ListAll(ctx context.Context) ([]domain.Delivery, error) {
	return f.listAll(ctx)
}

func (f *fakeStore) ListAvailable(ctx context.Context) ([]domain.Delivery, error) {
	return f.listAvailable(ctx)
}

func (f *fakeStore) ListActiveByCourier(ctx context.Context, courierID string) ([]domain.Delivery, error) {
	return f.listActive(ctx, courierID)
}

func (f *fakeStore) UpdateCost(ctx context.Context, id string, distanceKm float64, vehicleID string, c float64) (bool, error) {
	return f.updateCostFn(ctx, id, distanceKm, vehicleID, c)
}

type fakeCatalog struct {
	getFn func(context.Context, string) (*domain.VehicleProfile, error)
}

func (f *fakeCatalog) Get(ctx context.Context, id string) (*domain.VehicleProfile, error) {
	if f.getFn == nil {
		panic("vehicle catalog not expected")
	}
	return f.getFn(ctx, id)
}

type recorderPub struct {
	topics   []string
	events   []string
	payloads []any
}

func (p *recorderPub) Publish(topic, event string, payload any) {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	p.payloads = append(p.payloads, payload)
}

// inlineQueue runs enqueued tasks synchronously so tests can observe the
// broadcast without a worker goroutine.
type inlineQueue struct{ ran int }

func (q *inlineQueue) Enqueue(task func(context.Context)) {
	q.ran++
	task(context.Background())
}

// droppingQueue models a saturated queue that discards every task.
type droppingQueue struct{ dropped int }

func (q *droppingQueue) Enqueue(func(context.Context)) { q.dropped++ }

func defaultEstimator() *cost.Estimator {
	return cost.NewEstimator(config.Pricing{FuelPricePerLiter: 2.5, BaseDeliveryFee: 5.0})
}

func validInput() CreateInput {
	vehicle := "v-1"
	return CreateInput{
		PickupLocation: "Main St 1",
		DropoffAddress: "Oak Ave 2",
		Category:       "parcel",
		DistanceKm:     10,
		VehicleID:      &vehicle,
	}
}

func TestCreate_WithEstimateAndBroadcast(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		createFn: func(_ context.Context, d *domain.Delivery) (string, error) {
			d.ID = "d-1"
			d.CreatedAt = time.Now().UTC()
			d.UpdatedAt = d.CreatedAt
			return d.ID, nil
		},
	}
	catalog := &fakeCatalog{
		getFn: func(_ context.Context, id string) (*domain.VehicleProfile, error) {
			require.Equal(t, "v-1", id)
			return &domain.VehicleProfile{ID: id, FuelConsumption: 3.5}, nil
		},
	}
	pub := &recorderPub{}
	queue := &inlineQueue{}
	svc := NewService(store, catalog, defaultEstimator(), pub, queue, time.Second, logx.Nop())

	d, err := svc.Create(context.Background(), validInput(), "u-customer")
	require.NoError(t, err)
	require.Equal(t, "d-1", d.ID)
	require.Equal(t, domain.StatusPending, d.Status)
	require.NotNil(t, d.EstimatedCost)
	require.Equal(t, 5.88, *d.EstimatedCost)
	require.NotNil(t, d.VehicleID)

	require.Equal(t, 1, queue.ran)
	require.Equal(t, []string{notify.TopicRole("COURIER")}, pub.topics)
	require.Equal(t, []string{notify.EventNewDelivery}, pub.events)

	payload := pub.payloads[0].(notify.NewDeliveryPayload)
	require.Equal(t, "d-1", payload.DeliveryID)
	require.Equal(t, 5.88, *payload.EstimatedCost)
}

func TestCreate_EstimatorFailureSwallowed(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		createFn: func(_ context.Context, d *domain.Delivery) (string, error) {
			d.ID = "d-1"
			return d.ID, nil
		},
	}
	catalog := &fakeCatalog{
		getFn: func(context.Context, string) (*domain.VehicleProfile, error) {
			return nil, errors.New("catalog down")
		},
	}
	svc := NewService(store, catalog, defaultEstimator(), &recorderPub{}, &inlineQueue{}, time.Second, logx.Nop())

	d, err := svc.Create(context.Background(), validInput(), "u-customer")
	require.NoError(t, err)
	require.Nil(t, d.EstimatedCost)
	require.Nil(t, d.VehicleID)
}

func TestCreate_UnknownVehicleSkipsEstimate(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		createFn: func(_ context.Context, d *domain.Delivery) (string, error) {
			d.ID = "d-1"
			return d.ID, nil
		},
	}
	catalog := &fakeCatalog{
		getFn: func(context.Context, string) (*domain.VehicleProfile, error) {
			return nil, nil
		},
	}
	svc := NewService(store, catalog, defaultEstimator(), &recorderPub{}, &inlineQueue{}, time.Second, logx.Nop())

	d, err := svc.Create(context.Background(), validInput(), "u-customer")
	require.NoError(t, err)
	require.Nil(t, d.EstimatedCost)
}

func TestCreate_NoVehicleNoCatalogCall(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		createFn: func(_ context.Context, d *domain.Delivery) (string, error) {
			d.ID = "d-1"
			return d.ID, nil
		},
	}
	svc := NewService(store, &fakeCatalog{}, defaultEstimator(), &recorderPub{}, &inlineQueue{}, time.Second, logx.Nop())

	in := validInput()
	in.VehicleID = nil
	d, err := svc.Create(context.Background(), in, "u-customer")
	require.NoError(t, err)
	require.Nil(t, d.EstimatedCost)
}

func TestCreate_Validation(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeStore{}, &fakeCatalog{}, defaultEstimator(), &recorderPub{}, &inlineQueue{}, time.Second, logx.Nop())

	cases := map[string]func(*CreateInput){
		"empty pickup":      func(in *CreateInput) { in.PickupLocation = "  " },
		"empty dropoff":     func(in *CreateInput) { in.DropoffAddress = "" },
		"empty category":    func(in *CreateInput) { in.Category = "" },
		"negative distance": func(in *CreateInput) { in.DistanceKm = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := svc.Create(context.Background(), in, "u-customer")
			require.ErrorIs(t, err, apperr.Invalid)
		})
	}

	_, err := svc.Create(context.Background(), validInput(), " ")
	require.ErrorIs(t, err, apperr.Invalid)
}

func TestCreate_SaturatedQueueDoesNotFail(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		createFn: func(_ context.Context, d *domain.Delivery) (string, error) {
			d.ID = "d-1"
			return d.ID, nil
		},
	}
	queue := &droppingQueue{}
	svc := NewService(store, &fakeCatalog{}, defaultEstimator(), &recorderPub{}, queue, time.Second, logx.Nop())

	in := validInput()
	in.VehicleID = nil
	_, err := svc.Create(context.Background(), in, "u-customer")
	require.NoError(t, err)
	require.Equal(t, 1, queue.dropped)
}

func TestGet_CustomerOwnership(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		getFn: func(_ context.Context, id string) (*domain.Delivery, error) {
			if id != "d-1" {
				return nil, nil
			}
			return &domain.Delivery{ID: "d-1", CustomerID: "u-owner"}, nil
		},
	}
	svc := NewService(store, &fakeCatalog{}, defaultEstimator(), &recorderPub{}, &inlineQueue{}, time.Second, logx.Nop())

	owner := domain.AuthIdentity{ID: "u-owner", Role: domain.RoleCustomer}
	d, err := svc.Get(context.Background(), "d-1", owner)
	require.NoError(t, err)
	require.Equal(t, "d-1", d.ID)

	stranger := domain.AuthIdentity{ID: "u-other", Role: domain.RoleCustomer}
	_, err = svc.Get(context.Background(), "d-1", stranger)
	require.ErrorIs(t, err, apperr.Forbidden)

	admin := domain.AuthIdentity{ID: "u-admin", Role: domain.RoleAdmin}
	_, err = svc.Get(context.Background(), "d-1", admin)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "missing", owner)
	require.ErrorIs(t, err, apperr.NotFound)
}

func TestList_RoleRouting(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		listAll: func(context.Context) ([]domain.Delivery, error) {
			return []domain.Delivery{{ID: "d-1"}, {ID: "d-2"}}, nil
		},
		listByCustomer: func(_ context.Context, customerID string) ([]domain.Delivery, error) {
			require.Equal(t, "u-1", customerID)
			return []domain.Delivery{{ID: "d-1"}}, nil
		},
	}
	svc := NewService(store, &fakeCatalog{}, defaultEstimator(), &recorderPub{}, &inlineQueue{}, time.Second, logx.Nop())

	all, err := svc.List(context.Background(), domain.AuthIdentity{ID: "u-admin", Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, all, 2)

	own, err := svc.List(context.Background(), domain.AuthIdentity{ID: "u-1", Role: domain.RoleCustomer})
	require.NoError(t, err)
	require.Len(t, own, 1)

	_, err = svc.List(context.Background(), domain.AuthIdentity{ID: "u-2", Role: domain.RoleCourier})
	require.ErrorIs(t, err, apperr.Forbidden)
}

func TestRecalculateCost(t *testing.T) {
	t.Parallel()

	var storedCost float64
	store := &fakeStore{
		updateCostFn: func(_ context.Context, id string, distanceKm float64, vehicleID string, c float64) (bool, error) {
			if id != "d-1" {
				return false, nil
			}
			require.Equal(t, 10.0, distanceKm)
			require.Equal(t, "v-1", vehicleID)
			storedCost = c
			return true, nil
		},
	}
	catalog := &fakeCatalog{
		getFn: func(_ context.Context, id string) (*domain.VehicleProfile, error) {
			if id != "v-1" {
				return nil, nil
			}
			return &domain.VehicleProfile{ID: id, FuelConsumption: 3.5}, nil
		},
	}
	svc := NewService(store, catalog, defaultEstimator(), &recorderPub{}, &inlineQueue{}, time.Second, logx.Nop())

	got, err := svc.RecalculateCost(context.Background(), "d-1", 10, "v-1")
	require.NoError(t, err)
	require.Equal(t, 5.88, got)
	require.Equal(t, 5.88, storedCost)

	_, err = svc.RecalculateCost(context.Background(), "d-1", 10, "missing")
	require.ErrorIs(t, err, apperr.NotFound)

	_, err = svc.RecalculateCost(context.Background(), "missing", 10, "v-1")
	require.ErrorIs(t, err, apperr.NotFound)

	_, err = svc.RecalculateCost(context.Background(), "d-1", 0, "v-1")
	require.ErrorIs(t, err, apperr.Invalid)

	_, err = svc.RecalculateCost(context.Background(), "d-1", 10, " ")
	require.ErrorIs(t, err, apperr.Invalid)
}
