package main

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/yyvfuruta/employees/internal/models"
	"github.com/yyvfuruta/employees/internal/validator"
)

// employeeInput is the request body of create and update. Id and hire date
// are parsed here so that malformed values are reported as field errors.
type employeeInput struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Position string  `json:"position"`
	Salary   float64 `json:"salary"`
	HireDate string  `json:"hireDate"`
}

func (in employeeInput) employee(v *validator.Validator) models.Employee {
	e := models.Employee{
		Name:     in.Name,
		Position: in.Position,
		Salary:   in.Salary,
	}

	if in.ID != "" {
		id, err := uuid.Parse(in.ID)
		v.Check(err == nil, "id", "must be a valid UUID")
		e.ID = id
	}

	if in.HireDate != "" {
		date, err := models.ParseDate(in.HireDate)
		v.Check(err == nil, "hireDate", "must be a valid date (YYYY-MM-DD)")
		e.HireDate = date
	}

	return e
}

func (app *application) listEmployeesHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.employees.List(r.Context())
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Employee{}
	}

	if err := writeJSON(w, http.StatusOK, envelope{"status": "success", "employees": list}, nil); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) showEmployeeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	employee, err := app.employees.Get(r.Context(), id)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"status": "success", "employee": employee}, nil); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) createEmployeeHandler(w http.ResponseWriter, r *http.Request) {
	var input employeeInput
	if err := readJSON(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	v := validator.New()
	employee := input.employee(v)
	if models.ValidateEmployee(v, &employee); !v.Valid() {
		app.failedValidation(w, r, v.Errors)
		return
	}

	id, err := app.employees.Create(r.Context(), &employee, r.Header.Get("X-Idempotency-Key"))
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	app.accepted(w, r, id, "Employee successfully created")
}

func (app *application) updateEmployeeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	var input employeeInput
	if err := readJSON(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}
	// The path id wins over any id in the body.
	input.ID = ""

	v := validator.New()
	employee := input.employee(v)
	if models.ValidateEmployee(v, &employee); !v.Valid() {
		app.failedValidation(w, r, v.Errors)
		return
	}

	if err := app.employees.Update(r.Context(), id, &employee); err != nil {
		app.writeError(w, r, err)
		return
	}

	app.accepted(w, r, id, "Employee successfully updated")
}

func (app *application) deleteEmployeeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	if err := app.employees.Delete(r.Context(), id); err != nil {
		app.writeError(w, r, err)
		return
	}

	app.accepted(w, r, id, "Employee successfully deleted")
}

// accepted answers a write that was published but not applied yet.
func (app *application) accepted(w http.ResponseWriter, r *http.Request, id uuid.UUID, message string) {
	env := envelope{"status": "success", "message": message, "id": id}
	if err := writeJSON(w, http.StatusAccepted, env, nil); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) healthzHandler(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, envelope{"status": "available"}, nil); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) readyzHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.employees.Ready(r.Context()); err != nil {
		app.unavailable(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"status": "ready"}, nil); err != nil {
		app.serverError(w, r, err)
	}
}
