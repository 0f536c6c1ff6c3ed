package csvcodec

import "github.com/umtracker/platform/pkg/common/models"

type column struct {
	name  string
	field func(c *models.Circuit) *string
}

// columns is the export order and the set of names the decoder recognises.
var columns = []column{
	{"id", func(c *models.Circuit) *string { return &c.ID }},
	{"state", func(c *models.Circuit) *string { return &c.State }},
	{"site_name", func(c *models.Circuit) *string { return &c.SiteName }},
	{"ckt_id", func(c *models.Circuit) *string { return &c.CktID }},
	{"parent", func(c *models.Circuit) *string { return &c.Parent }},
	{"link_type", func(c *models.Circuit) *string { return &c.LinkType }},
	{"provider", func(c *models.Circuit) *string { return &c.Provider }},
	{"z_loc", func(c *models.Circuit) *string { return &c.ZLoc }},
	{"rtr_name_z_loc", func(c *models.Circuit) *string { return &c.RtrNameZLoc }},
	{"to_description", func(c *models.Circuit) *string { return &c.ToDescription }},
	{"rtr_port_z_loc", func(c *models.Circuit) *string { return &c.RtrPortZLoc }},
	{"interf_ip_z_loc", func(c *models.Circuit) *string { return &c.InterfIPZLoc }},
	{"a_loc", func(c *models.Circuit) *string { return &c.ALoc }},
	{"rtr_name_a_loc", func(c *models.Circuit) *string { return &c.RtrNameALoc }},
	{"rtr_port", func(c *models.Circuit) *string { return &c.RtrPort }},
	{"interf_ip_a_loc", func(c *models.Circuit) *string { return &c.InterfIPALoc }},
	{"bw_mbps", func(c *models.Circuit) *string { return &c.BwMbps }},
	{"single_isp", func(c *models.Circuit) *string { return &c.SingleISP }},
	{"ups_closet", func(c *models.Circuit) *string { return &c.UPSCloset }},
	{"router_ip", func(c *models.Circuit) *string { return &c.RouterIP }},
}

// Header returns the column names in export order.
func Header() []string {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.name
	}
	return names
}
