package entity

// Trigger describes one local reminder to register with the notification gateway.
type Trigger struct {
	Title   string
	Body    string
	Hour    int
	Minute  int
	Repeats bool
}
