package main

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/yyvfuruta/employees/internal/broker"
	"github.com/yyvfuruta/employees/internal/employees"
	"github.com/yyvfuruta/employees/internal/models"
	"github.com/yyvfuruta/employees/internal/validator"
	"github.com/yyvfuruta/employees/internal/worker"
)

// handler applies employee change events to the store.
type handler struct {
	models models.Models
	logger *slog.Logger
}

func (h *handler) register(w *worker.Worker) {
	w.Handle(broker.EmployeePostQueue, broker.HandlerFunc(h.onPost))
	w.Handle(broker.EmployeePutQueue, broker.HandlerFunc(h.onPut))
	w.Handle(broker.EmployeeDeleteQueue, broker.HandlerFunc(h.onDelete))
}

func (h *handler) onPost(ctx context.Context, d broker.Delivery) error {
	employee, err := decodeValid(d.Body)
	if err != nil {
		return err
	}

	if err := h.models.Employee.Save(ctx, employee); err != nil {
		return err
	}
	h.logger.Info("Employee created", "employee_id", employee.ID)
	return nil
}

// onPut only updates records that exist. An update for an unknown id is
// dropped, so it cannot resurrect a deleted employee.
func (h *handler) onPut(ctx context.Context, d broker.Delivery) error {
	employee, err := decodeValid(d.Body)
	if err != nil {
		return err
	}

	exists, err := h.models.Employee.Exists(ctx, employee.ID)
	if err != nil {
		return err
	}
	if !exists {
		h.logger.Warn("Employee not found, skipping update", "employee_id", employee.ID)
		return nil
	}

	if err := h.models.Employee.Save(ctx, employee); err != nil {
		return err
	}
	h.logger.Info("Employee updated", "employee_id", employee.ID)
	return nil
}

func (h *handler) onDelete(ctx context.Context, d broker.Delivery) error {
	id, err := employees.DecodeID(d.Body)
	if err != nil {
		return broker.Permanent(err)
	}

	if err := h.models.Employee.Delete(ctx, id); err != nil {
		return err
	}
	h.logger.Info("Employee deleted", "employee_id", id)
	return nil
}

// decodeValid decodes an employee event. Malformed and invalid records are
// permanent failures.
func decodeValid(body []byte) (*models.Employee, error) {
	employee, err := employees.DecodeEmployee(body)
	if err != nil {
		return nil, broker.Permanent(err)
	}

	v := validator.New()
	v.Check(employee.ID != uuid.Nil, "id", "must be provided")
	models.ValidateEmployee(v, employee)
	if err := v.Err(); err != nil {
		return nil, broker.Permanent(err)
	}
	return employee, nil
}
