package rpc

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/yyvfuruta/employees/internal/broker"
	"github.com/yyvfuruta/employees/internal/employees"
	"github.com/yyvfuruta/employees/internal/models"
	"github.com/yyvfuruta/employees/internal/validator"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Server answers reads from the store. Writes are validated and published
// on the exchange, like the gateway does; the listener applies them.
type Server struct {
	store     models.EmployeeStore
	publisher broker.Publisher
	logger    *slog.Logger
}

var _ EmployeeServiceServer = (*Server)(nil)

func NewServer(store models.EmployeeStore, publisher broker.Publisher, logger *slog.Logger) *Server {
	return &Server{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// NewGRPCServer returns a grpc.Server with s registered and request logging
// installed.
func NewGRPCServer(s *Server, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.UnaryInterceptor(LoggingInterceptor(s.logger))}, opts...)
	srv := grpc.NewServer(opts...)
	RegisterEmployeeServiceServer(srv, s)
	return srv
}

func (s *Server) GetEmployee(ctx context.Context, req *EmployeeRequest) (*GetEmployeeResponse, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	employee, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &GetEmployeeResponse{Employee: toMessage(employee)}, nil
}

func (s *Server) ListEmployees(ctx context.Context, _ *ListEmployeesRequest) (*ListEmployeesResponse, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	resp := &ListEmployeesResponse{Employees: make([]EmployeeMessage, 0, len(list))}
	for i := range list {
		resp.Employees = append(resp.Employees, toMessage(&list[i]))
	}
	return resp, nil
}

// CreateEmployee ignores any id in the request and assigns a new one.
func (s *Server) CreateEmployee(ctx context.Context, req *EmployeeMessage) (*WriteResponse, error) {
	v := validator.New()
	employee := req.toModel(v)
	employee.ID = uuid.New()

	models.ValidateEmployee(v, &employee)
	if err := v.Err(); err != nil {
		return nil, toStatus(ctx, err)
	}

	if err := employees.PublishCreate(ctx, s.publisher, &employee); err != nil {
		return nil, toStatus(ctx, err)
	}

	s.logger.Info("Published create", "employee_id", employee.ID)
	return &WriteResponse{ID: employee.ID.String()}, nil
}

func (s *Server) UpdateEmployee(ctx context.Context, req *EmployeeMessage) (*WriteResponse, error) {
	v := validator.New()
	v.Check(req.ID != "", "id", "must be provided")
	employee := req.toModel(v)

	models.ValidateEmployee(v, &employee)
	if err := v.Err(); err != nil {
		return nil, toStatus(ctx, err)
	}

	if err := s.mustExist(ctx, employee.ID); err != nil {
		return nil, toStatus(ctx, err)
	}

	if err := employees.PublishUpdate(ctx, s.publisher, &employee); err != nil {
		return nil, toStatus(ctx, err)
	}

	s.logger.Info("Published update", "employee_id", employee.ID)
	return &WriteResponse{ID: employee.ID.String()}, nil
}

func (s *Server) DeleteEmployee(ctx context.Context, req *EmployeeRequest) (*WriteResponse, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	if err := s.mustExist(ctx, id); err != nil {
		return nil, toStatus(ctx, err)
	}

	if err := employees.PublishDelete(ctx, s.publisher, id); err != nil {
		return nil, toStatus(ctx, err)
	}

	s.logger.Info("Published delete", "employee_id", id)
	return &WriteResponse{ID: id.String()}, nil
}

func (s *Server) mustExist(ctx context.Context, id uuid.UUID) error {
	exists, err := s.store.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return models.ErrRecordNotFound
	}
	return nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		v := validator.New()
		v.AddError("id", "must be a valid UUID")
		return uuid.Nil, v.Err()
	}
	return id, nil
}

// LoggingInterceptor logs every unary call with its duration.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		attrs := []any{"method", info.FullMethod, "duration", time.Since(start)}
		if err != nil {
			attrs = append(attrs, "code", status.Code(err).String(), "error", err)
			logger.Warn("RPC failed", attrs...)
		} else {
			logger.Info("RPC handled", attrs...)
		}
		return resp, err
	}
}
