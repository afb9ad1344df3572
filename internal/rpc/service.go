// Package rpc is the synchronous path between the gateway and the domain
// tier: the employees.v1.EmployeeService gRPC service, its server on top of
// the store and exchange, and a client for the gateway.
package rpc

import (
	"context"

	"github.com/google/uuid"
	"github.com/yyvfuruta/employees/internal/models"
	"github.com/yyvfuruta/employees/internal/validator"
	"google.golang.org/grpc"
)

const serviceName = "employees.v1.EmployeeService"

// EmployeeMessage is the wire form of an employee. Ids and dates travel as
// text so that malformed values reach the server and fail validation there.
type EmployeeMessage struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name"`
	Position string  `json:"position"`
	Salary   float64 `json:"salary"`
	HireDate string  `json:"hireDate"`
}

type EmployeeRequest struct {
	ID string `json:"id"`
}

type ListEmployeesRequest struct{}

type GetEmployeeResponse struct {
	Employee EmployeeMessage `json:"employee"`
}

type ListEmployeesResponse struct {
	Employees []EmployeeMessage `json:"employees"`
}

// WriteResponse carries the id a write was published for.
type WriteResponse struct {
	ID string `json:"id"`
}

func toMessage(e *models.Employee) EmployeeMessage {
	return EmployeeMessage{
		ID:       e.ID.String(),
		Name:     e.Name,
		Position: e.Position,
		Salary:   e.Salary,
		HireDate: e.HireDate.String(),
	}
}

// toModel converts m, recording malformed fields in v.
func (m *EmployeeMessage) toModel(v *validator.Validator) models.Employee {
	e := models.Employee{
		Name:     m.Name,
		Position: m.Position,
		Salary:   m.Salary,
	}

	if m.ID != "" {
		id, err := uuid.Parse(m.ID)
		v.Check(err == nil, "id", "must be a valid UUID")
		e.ID = id
	}

	if m.HireDate != "" {
		date, err := models.ParseDate(m.HireDate)
		v.Check(err == nil, "hireDate", "must be a valid date (YYYY-MM-DD)")
		e.HireDate = date
	}

	return e
}

// EmployeeServiceServer is implemented by Server.
type EmployeeServiceServer interface {
	GetEmployee(ctx context.Context, req *EmployeeRequest) (*GetEmployeeResponse, error)
	ListEmployees(ctx context.Context, req *ListEmployeesRequest) (*ListEmployeesResponse, error)
	CreateEmployee(ctx context.Context, req *EmployeeMessage) (*WriteResponse, error)
	UpdateEmployee(ctx context.Context, req *EmployeeMessage) (*WriteResponse, error)
	DeleteEmployee(ctx context.Context, req *EmployeeRequest) (*WriteResponse, error)
}

func RegisterEmployeeServiceServer(s grpc.ServiceRegistrar, srv EmployeeServiceServer) {
	s.RegisterService(&EmployeeServiceDesc, srv)
}

var EmployeeServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*EmployeeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetEmployee", EmployeeServiceServer.GetEmployee),
		unary("ListEmployees", EmployeeServiceServer.ListEmployees),
		unary("CreateEmployee", EmployeeServiceServer.CreateEmployee),
		unary("UpdateEmployee", EmployeeServiceServer.UpdateEmployee),
		unary("DeleteEmployee", EmployeeServiceServer.DeleteEmployee),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "employees/v1/employee.proto",
}

func fullMethod(method string) string {
	return "/" + serviceName + "/" + method
}

func unary[Req, Resp any](method string, call func(EmployeeServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(EmployeeServiceServer), ctx, in)
			}

			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(EmployeeServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
