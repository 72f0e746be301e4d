package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"carpool/internal/domain"
	"carpool/internal/redis"
	"carpool/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
	GetError    error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *trip
	m.trips[trip.ID] = &copy
}

// GetTrip returns the stored trip for test assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil
	}
	copy := *trip
	return &copy
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	// Row locking is emulated by the mock tx manager, which serializes
	// whole transactions.
	return m.GetByID(ctx, id)
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) Search(ctx context.Context, filters repository.TripSearchFilters) ([]*domain.Trip, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0)
	for _, t := range m.trips {
		if t.Status != domain.TripStatusActive {
			continue
		}
		if filters.DepartureCity != "" && t.DepartureCity != filters.DepartureCity {
			continue
		}
		if filters.ArrivalCity != "" && t.ArrivalCity != filters.ArrivalCity {
			continue
		}
		if filters.MinSeats > 0 && t.AvailableSeats < filters.MinSeats {
			continue
		}
		if filters.MaxPrice > 0 && t.PricePerSeat > filters.MaxPrice {
			continue
		}
		copy := *t
		result = append(result, &copy)
	}
	return result, len(result), nil
}

func (m *MockTripRepository) GetByDriverID(ctx context.Context, driverID string, statuses ...domain.TripStatus) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0)
	for _, t := range m.trips {
		if t.DriverID != driverID {
			continue
		}
		if len(statuses) > 0 && !containsTripStatus(statuses, t.Status) {
			continue
		}
		copy := *t
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockTripRepository) CountActiveByDriverID(ctx context.Context, driverID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, t := range m.trips {
		if t.DriverID == driverID && (t.Status == domain.TripStatusActive || t.Status == domain.TripStatusFull) {
			count++
		}
	}
	return count, nil
}

func containsTripStatus(statuses []domain.TripStatus, s domain.TripStatus) bool {
	for _, status := range statuses {
		if status == s {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK RESERVATION REPOSITORY
// ──────────────────────────────────────────────

// MockReservationRepository is a mock implementation of ReservationRepository.
type MockReservationRepository struct {
	mu           sync.RWMutex
	reservations map[string]*domain.Reservation

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockReservationRepository creates a new mock reservation repository.
func NewMockReservationRepository() *MockReservationRepository {
	return &MockReservationRepository{
		reservations: make(map[string]*domain.Reservation),
	}
}

// AddReservation adds a reservation to the mock repository.
func (m *MockReservationRepository) AddReservation(res *domain.Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *res
	m.reservations[res.ID] = &copy
}

// GetReservation returns the stored reservation for test assertions.
func (m *MockReservationRepository) GetReservation(id string) *domain.Reservation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.reservations[id]
	if !ok {
		return nil
	}
	copy := *res
	return &copy
}

func (m *MockReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// The database enforces one active reservation per passenger per trip
	// with a partial unique index; the mock emulates it.
	for _, existing := range m.reservations {
		if existing.TripID == res.TripID && existing.PassengerID == res.PassengerID && existing.IsActive() {
			return repository.ErrDuplicate
		}
	}
	copy := *res
	m.reservations[res.ID] = &copy
	return nil
}

func (m *MockReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *res
	return &copy, nil
}

func (m *MockReservationRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Reservation, error) {
	return m.GetByID(ctx, id)
}

func (m *MockReservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[res.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *res
	m.reservations[res.ID] = &copy
	return nil
}

func (m *MockReservationRepository) GetActiveByTripAndPassenger(ctx context.Context, tripID, passengerID string) (*domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, res := range m.reservations {
		if res.TripID == tripID && res.PassengerID == passengerID && res.IsActive() {
			copy := *res
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockReservationRepository) ListByPassenger(ctx context.Context, passengerID string, statuses ...domain.ReservationStatus) ([]*domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Reservation, 0)
	for _, res := range m.reservations {
		if res.PassengerID != passengerID {
			continue
		}
		if len(statuses) > 0 && !containsReservationStatus(statuses, res.Status) {
			continue
		}
		copy := *res
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockReservationRepository) ListByTrip(ctx context.Context, tripID string, statuses ...domain.ReservationStatus) ([]*domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Reservation, 0)
	for _, res := range m.reservations {
		if res.TripID != tripID {
			continue
		}
		if len(statuses) > 0 && !containsReservationStatus(statuses, res.Status) {
			continue
		}
		copy := *res
		result = append(result, &copy)
	}
	return result, nil
}

func containsReservationStatus(statuses []domain.ReservationStatus, s domain.ReservationStatus) bool {
	for _, status := range statuses {
		if status == s {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Counters for verification
	UpdateRatingCallCount int32

	// Error injection
	CreateError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *user
	m.users[user.ID] = &copy
}

// GetUser returns the stored user for test assertions.
func (m *MockUserRepository) GetUser(id string) *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil
	}
	copy := *user
	return &copy
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error) {
	return m.GetByID(ctx, id)
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Phone == phone {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) MarkPhoneVerified(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PhoneVerified = true
	return nil
}

func (m *MockUserRepository) UpdateRating(ctx context.Context, id string, average float64, total int) error {
	atomic.AddInt32(&m.UpdateRatingCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.RatingAverage = average
	user.TotalRatings = total
	return nil
}

func (m *MockUserRepository) IncrementTripsAsDriver(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.TripsAsDriver++
	return nil
}

func (m *MockUserRepository) IncrementTripsAsPassenger(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.TripsAsPassenger++
	return nil
}

// ──────────────────────────────────────────────
// MOCK TX MANAGER
// ──────────────────────────────────────────────

// MockTxManager runs transaction functions against the shared mocks. A
// single mutex serializes transactions, which stands in for the row-level
// locks the postgres implementation takes with FOR UPDATE.
type MockTxManager struct {
	mu           sync.Mutex
	trips        *MockTripRepository
	reservations *MockReservationRepository
	users        *MockUserRepository

	// Error injection: fail the transaction before fn runs.
	BeginError error
}

// NewMockTxManager creates a transaction manager over the given mocks.
func NewMockTxManager(trips *MockTripRepository, reservations *MockReservationRepository, users *MockUserRepository) *MockTxManager {
	return &MockTxManager{trips: trips, reservations: reservations, users: users}
}

func (m *MockTxManager) RunInTx(ctx context.Context, fn func(s repository.Stores) error) error {
	if m.BeginError != nil {
		return m.BeginError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(mockStores{m})
}

type mockStores struct {
	m *MockTxManager
}

func (s mockStores) Trips() repository.TripRepository               { return s.m.trips }
func (s mockStores) Reservations() repository.ReservationRepository { return s.m.reservations }
func (s mockStores) Users() repository.UserRepository               { return s.m.users }

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
	// ForceBusy makes every acquire attempt report the lock as taken.
	ForceBusy bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForceBusy || m.locks[tripID] {
		return false, nil
	}
	m.locks[tripID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseTripLock(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, tripID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is a mock implementation of CacheStoreInterface.
type MockCacheStore struct {
	mu    sync.RWMutex
	trips map[string]*redis.CachedTrip

	// Counters for verification
	GetCallCount        int32
	SetCallCount        int32
	InvalidateCallCount int32
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		trips: make(map[string]*redis.CachedTrip),
	}
}

func (m *MockCacheStore) GetTrip(ctx context.Context, tripID string) (*redis.CachedTrip, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return nil, nil
	}
	copy := *trip
	return &copy, nil
}

func (m *MockCacheStore) SetTrip(ctx context.Context, trip *redis.CachedTrip) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockCacheStore) InvalidateTrip(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trips, tripID)
	return nil
}
