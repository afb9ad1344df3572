package employees

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/yyvfuruta/employees/internal/broker"
	"github.com/yyvfuruta/employees/internal/cache"
	"github.com/yyvfuruta/employees/internal/models"
	"github.com/yyvfuruta/employees/internal/validator"
)

const (
	AllEmployees   cache.Namespace = "employees:all"
	EmployeeByID   cache.Namespace = "employees:by-id"
	IdempotencyKey cache.Namespace = "employees:idempotency"

	allKey = "all"
)

// Remote is the synchronous read path into the domain tier.
type Remote interface {
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error)
}

// Service is the gateway side of the employee records. Reads go through the
// cache to the domain tier; writes are published and applied later by the
// domain listener, so a read right after a write may be stale.
type Service struct {
	remote    Remote
	publisher broker.Publisher
	cache     cache.Cache
	logger    *slog.Logger
}

func NewService(remote Remote, publisher broker.Publisher, c cache.Cache, logger *slog.Logger) *Service {
	return &Service{
		remote:    remote,
		publisher: publisher,
		cache:     c,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	if s.lookup(ctx, AllEmployees, allKey, &employees) {
		return employees, nil
	}

	employees, err := s.remote.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	s.store(ctx, AllEmployees, allKey, employees)
	return employees, nil
}

// Get returns models.ErrRecordNotFound for unknown ids. Misses are not cached.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	var employee models.Employee
	if s.lookup(ctx, EmployeeByID, id.String(), &employee) {
		return &employee, nil
	}

	found, err := s.remote.GetEmployee(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get employee %s: %w", id, err)
	}

	s.store(ctx, EmployeeByID, id.String(), found)
	return found, nil
}

// Create publishes a new employee and returns its id. An empty id is
// generated. A repeated idempotencyKey returns the id of the first call
// without publishing again.
func (s *Service) Create(ctx context.Context, employee *models.Employee, idempotencyKey string) (uuid.UUID, error) {
	if err := validate(employee); err != nil {
		return uuid.Nil, err
	}

	if idempotencyKey != "" {
		var existing uuid.UUID
		if s.lookup(ctx, IdempotencyKey, idempotencyKey, &existing) {
			s.logger.Info("Duplicate create request", "idempotency_key", idempotencyKey, "employee_id", existing)
			return existing, nil
		}
	}

	if employee.ID == uuid.Nil {
		employee.ID = uuid.New()
		s.logger.Info("Generated new ID for employee", "employee_id", employee.ID)
	}

	if err := PublishCreate(ctx, s.publisher, employee); err != nil {
		return uuid.Nil, err
	}

	s.store(ctx, EmployeeByID, employee.ID.String(), employee)
	s.clear(ctx, AllEmployees)
	if idempotencyKey != "" {
		s.store(ctx, IdempotencyKey, idempotencyKey, employee.ID)
	}

	return employee.ID, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, employee *models.Employee) error {
	employee.ID = id
	if err := validate(employee); err != nil {
		return err
	}

	if err := PublishUpdate(ctx, s.publisher, employee); err != nil {
		return err
	}

	s.evict(ctx, EmployeeByID, id.String())
	s.clear(ctx, AllEmployees)
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := PublishDelete(ctx, s.publisher, id); err != nil {
		return err
	}

	s.evict(ctx, EmployeeByID, id.String())
	s.clear(ctx, AllEmployees)
	return nil
}

// Ready reports whether the cache answers.
func (s *Service) Ready(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

func validate(employee *models.Employee) error {
	v := validator.New()
	models.ValidateEmployee(v, employee)
	return v.Err()
}

// Cache failures are logged and treated as misses.

func (s *Service) lookup(ctx context.Context, ns cache.Namespace, key string, dst any) bool {
	hit, err := s.cache.Get(ctx, ns, key, dst)
	if err != nil {
		s.logger.Warn("Cache read failed", "namespace", ns, "key", key, "error", err)
		return false
	}
	return hit
}

func (s *Service) store(ctx context.Context, ns cache.Namespace, key string, value any) {
	if err := s.cache.Put(ctx, ns, key, value); err != nil {
		s.logger.Warn("Cache write failed", "namespace", ns, "key", key, "error", err)
	}
}

func (s *Service) evict(ctx context.Context, ns cache.Namespace, key string) {
	if err := s.cache.Evict(ctx, ns, key); err != nil {
		s.logger.Warn("Cache evict failed", "namespace", ns, "key", key, "error", err)
	}
}

func (s *Service) clear(ctx context.Context, ns cache.Namespace) {
	if err := s.cache.Clear(ctx, ns); err != nil {
		s.logger.Warn("Cache clear failed", "namespace", ns, "error", err)
	}
}
