package rpc

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yyvfuruta/employees/internal/employees"
	"github.com/yyvfuruta/employees/internal/models"
	"github.com/yyvfuruta/employees/internal/validator"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Client calls the domain tier's EmployeeService.
type Client struct {
	conn grpc.ClientConnInterface
}

var _ employees.Remote = (*Client)(nil)

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Dial opens a plaintext connection to addr.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.Dial(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, nil
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	var trailer metadata.MD
	err := c.conn.Invoke(ctx, fullMethod(method), req, resp,
		grpc.CallContentSubtype(codecName),
		grpc.Trailer(&trailer),
	)
	if err != nil {
		return fromStatus(err, trailer)
	}
	return nil
}

func (c *Client) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	var resp GetEmployeeResponse
	if err := c.invoke(ctx, "GetEmployee", &EmployeeRequest{ID: id.String()}, &resp); err != nil {
		return nil, err
	}
	return fromMessage(&resp.Employee)
}

func (c *Client) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var resp ListEmployeesResponse
	if err := c.invoke(ctx, "ListEmployees", &ListEmployeesRequest{}, &resp); err != nil {
		return nil, err
	}

	list := make([]models.Employee, 0, len(resp.Employees))
	for i := range resp.Employees {
		employee, err := fromMessage(&resp.Employees[i])
		if err != nil {
			return nil, err
		}
		list = append(list, *employee)
	}
	return list, nil
}

func fromMessage(m *EmployeeMessage) (*models.Employee, error) {
	v := validator.New()
	employee := m.toModel(v)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("malformed employee from domain: %w", err)
	}
	return &employee, nil
}
