package session

type StartSessionRequest struct {
	DeviceID    int64 `json:"device_id" binding:"required"`
	Controllers int   `json:"controllers" binding:"required,gte=1"`
	// BillID attaches the session to an existing open bill; zero means a new
	// bill is created.
	BillID int64 `json:"bill_id"`
}

type UpdateControllersRequest struct {
	Controllers int `json:"controllers" binding:"required,gte=1"`
}

type LiveCostResponse struct {
	SessionID int64   `json:"session_id"`
	Cost      float64 `json:"cost"`
	Final     bool    `json:"final"`
}
