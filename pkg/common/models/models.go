package models

import (
	"time"

	"gorm.io/datatypes"
)

// Circuit inventory models
type Circuit struct {
	ID            string `json:"id"`
	State         string `json:"state"`
	SiteName      string `json:"site_name"`
	CktID         string `json:"ckt_id"`
	Parent        string `json:"parent"`
	LinkType      string `json:"link_type"`
	Provider      string `json:"provider"`
	ZLoc          string `json:"z_loc"`
	RtrNameZLoc   string `json:"rtr_name_z_loc"`
	ToDescription string `json:"to_description"`
	RtrPortZLoc   string `json:"rtr_port_z_loc"`
	InterfIPZLoc  string `json:"interf_ip_z_loc"`
	ALoc          string `json:"a_loc"`
	RtrNameALoc   string `json:"rtr_name_a_loc"`
	RtrPort       string `json:"rtr_port"`
	InterfIPALoc  string `json:"interf_ip_a_loc"`
	BwMbps        string `json:"bw_mbps"`
	SingleISP     string `json:"single_isp"`
	UPSCloset     string `json:"ups_closet"`
	RouterIP      string `json:"router_ip"`
}

// CircuitInput is the creation payload. Absent fields become empty strings.
type CircuitInput struct {
	State         *string `json:"state,omitempty"`
	SiteName      *string `json:"site_name,omitempty"`
	CktID         *string `json:"ckt_id,omitempty"`
	Parent        *string `json:"parent,omitempty"`
	LinkType      *string `json:"link_type,omitempty"`
	Provider      *string `json:"provider,omitempty"`
	ZLoc          *string `json:"z_loc,omitempty"`
	RtrNameZLoc   *string `json:"rtr_name_z_loc,omitempty"`
	ToDescription *string `json:"to_description,omitempty"`
	RtrPortZLoc   *string `json:"rtr_port_z_loc,omitempty"`
	InterfIPZLoc  *string `json:"interf_ip_z_loc,omitempty"`
	ALoc          *string `json:"a_loc,omitempty"`
	RtrNameALoc   *string `json:"rtr_name_a_loc,omitempty"`
	RtrPort       *string `json:"rtr_port,omitempty"`
	InterfIPALoc  *string `json:"interf_ip_a_loc,omitempty"`
	BwMbps        *string `json:"bw_mbps,omitempty"`
	SingleISP     *string `json:"single_isp,omitempty"`
	UPSCloset     *string `json:"ups_closet,omitempty"`
	RouterIP      *string `json:"router_ip,omitempty"`
}

// ToCircuit builds a full record under the given id.
func (in CircuitInput) ToCircuit(id string) Circuit {
	return Circuit{
		ID:            id,
		State:         deref(in.State),
		SiteName:      deref(in.SiteName),
		CktID:         deref(in.CktID),
		Parent:        deref(in.Parent),
		LinkType:      deref(in.LinkType),
		Provider:      deref(in.Provider),
		ZLoc:          deref(in.ZLoc),
		RtrNameZLoc:   deref(in.RtrNameZLoc),
		ToDescription: deref(in.ToDescription),
		RtrPortZLoc:   deref(in.RtrPortZLoc),
		InterfIPZLoc:  deref(in.InterfIPZLoc),
		ALoc:          deref(in.ALoc),
		RtrNameALoc:   deref(in.RtrNameALoc),
		RtrPort:       deref(in.RtrPort),
		InterfIPALoc:  deref(in.InterfIPALoc),
		BwMbps:        deref(in.BwMbps),
		SingleISP:     deref(in.SingleISP),
		UPSCloset:     deref(in.UPSCloset),
		RouterIP:      deref(in.RouterIP),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Import reporting models
const (
	// ReportTypeFinish tags the begin entry of a run, which becomes the
	// terminal entry once the run completes.
	ReportTypeFinish = "finish"
	ReportTypeError  = "error"

	ReportMessageInProgress = "In progress"
)

type ImportReport struct {
	Type      string            `json:"type"`
	ID        string            `json:"id"`
	Message   string            `json:"message"`
	FileName  *string           `json:"file_name"`
	Seen      bool              `json:"seen"`
	RunID     string            `json:"run_id,omitempty"`
	Row       *int              `json:"row,omitempty"`
	Details   datatypes.JSONMap `json:"details,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type ReportAcknowledgement struct {
	ID string `json:"id"`
}

type ImportAccepted struct {
	Message  string  `json:"message"`
	ReportID string  `json:"report_id"`
	FileName *string `json:"file_name,omitempty"`
}

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // import.finished
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// Identity models
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	RequestedRole string `json:"requested_role"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// HTTP envelope
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}
