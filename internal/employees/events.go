// Package employees implements the write and read paths for employee records:
// change events published on the exchange, and cached reads served through
// the domain tier.
package employees

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yyvfuruta/employees/internal/broker"
	"github.com/yyvfuruta/employees/internal/models"
)

// EncodeEmployee is the body of employee.post and employee.put events.
func EncodeEmployee(employee *models.Employee) ([]byte, error) {
	body, err := json.Marshal(employee)
	if err != nil {
		return nil, fmt.Errorf("encode employee: %w", err)
	}
	return body, nil
}

func DecodeEmployee(body []byte) (*models.Employee, error) {
	var employee models.Employee
	if err := json.Unmarshal(body, &employee); err != nil {
		return nil, fmt.Errorf("decode employee: %w", err)
	}
	return &employee, nil
}

// EncodeID is the body of employee.delete events: the raw id text.
func EncodeID(id uuid.UUID) []byte {
	return []byte(id.String())
}

func DecodeID(body []byte) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(string(body)))
	if err != nil {
		return uuid.Nil, fmt.Errorf("decode employee id: %w", err)
	}
	return id, nil
}

func PublishCreate(ctx context.Context, p broker.Publisher, employee *models.Employee) error {
	return publishEmployee(ctx, p, broker.EmployeePostRoutingKey, employee)
}

func PublishUpdate(ctx context.Context, p broker.Publisher, employee *models.Employee) error {
	return publishEmployee(ctx, p, broker.EmployeePutRoutingKey, employee)
}

func PublishDelete(ctx context.Context, p broker.Publisher, id uuid.UUID) error {
	if err := p.Publish(ctx, broker.EmployeeDeleteRoutingKey, EncodeID(id)); err != nil {
		return fmt.Errorf("publish %s: %w", broker.EmployeeDeleteRoutingKey, err)
	}
	return nil
}

func publishEmployee(ctx context.Context, p broker.Publisher, routingKey string, employee *models.Employee) error {
	body, err := EncodeEmployee(employee)
	if err != nil {
		return err
	}
	if err := p.Publish(ctx, routingKey, body); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}
