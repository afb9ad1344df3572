package main

import "net/http"

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/employees", app.listEmployeesHandler)
	mux.HandleFunc("GET /api/v1/employees/{id}", app.showEmployeeHandler)
	mux.HandleFunc("POST /api/v1/employees", app.requireToken(app.createEmployeeHandler))
	mux.HandleFunc("PUT /api/v1/employees/{id}", app.requireToken(app.updateEmployeeHandler))
	mux.HandleFunc("DELETE /api/v1/employees/{id}", app.requireToken(app.deleteEmployeeHandler))
	mux.HandleFunc("GET /healthz", app.healthzHandler)
	mux.HandleFunc("GET /readyz", app.readyzHandler)

	return app.recoverPanic(app.logRequest(mux))
}
