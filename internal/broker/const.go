package broker

import "fmt"

const (
	EmployeeExchangeName = "employeeExchange"
	EmployeeExchangeType = "direct"

	// Gateway sends to and the domain listener reads from:
	EmployeePostQueue      = "employeePostRequestQueue"
	EmployeePostRoutingKey = "employee.post"

	EmployeePutQueue      = "employeePutRequestQueue"
	EmployeePutRoutingKey = "employee.put"

	EmployeeDeleteQueue      = "employeeDeleteRequestQueue"
	EmployeeDeleteRoutingKey = "employee.delete"

	retrySuffix = ".retry"
	deadSuffix  = ".dead"
)

// Bindings maps every queue to the routing key it is bound with.
var Bindings = map[string]string{
	EmployeePostQueue:   EmployeePostRoutingKey,
	EmployeePutQueue:    EmployeePutRoutingKey,
	EmployeeDeleteQueue: EmployeeDeleteRoutingKey,
}

// RoutingKeyFor returns the routing key bound to queue.
func RoutingKeyFor(queue string) (string, error) {
	key, ok := Bindings[queue]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownQueue, queue)
	}
	return key, nil
}

// DeadQueue is the name of the queue that keeps messages which could not be handled.
func DeadQueue(queue string) string { return queue + deadSuffix }

// ContentType is the media type of the bodies published under routingKey.
// Deletes carry the raw id, every other event a JSON record.
func ContentType(routingKey string) string {
	if routingKey == EmployeeDeleteRoutingKey {
		return "text/plain"
	}
	return "application/json"
}
