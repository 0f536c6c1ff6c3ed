package circuits

import (
	"context"
	"errors"
	"fmt"

	"github.com/umtracker/platform/pkg/common/models"
	"gorm.io/gorm"
)

type circuitModel struct {
	ID            string `gorm:"column:id;primaryKey;size:26"`
	State         string `gorm:"column:state"`
	SiteName      string `gorm:"column:site_name"`
	CktID         string `gorm:"column:ckt_id"`
	Parent        string `gorm:"column:parent"`
	LinkType      string `gorm:"column:link_type"`
	Provider      string `gorm:"column:provider"`
	ZLoc          string `gorm:"column:z_loc"`
	RtrNameZLoc   string `gorm:"column:rtr_name_z_loc"`
	ToDescription string `gorm:"column:to_description"`
	RtrPortZLoc   string `gorm:"column:rtr_port_z_loc"`
	InterfIPZLoc  string `gorm:"column:interf_ip_z_loc"`
	ALoc          string `gorm:"column:a_loc"`
	RtrNameALoc   string `gorm:"column:rtr_name_a_loc"`
	RtrPort       string `gorm:"column:rtr_port"`
	InterfIPALoc  string `gorm:"column:interf_ip_a_loc"`
	BwMbps        string `gorm:"column:bw_mbps"`
	SingleISP     string `gorm:"column:single_isp"`
	UPSCloset     string `gorm:"column:ups_closet"`
	RouterIP      string `gorm:"column:router_ip"`
}

func (circuitModel) TableName() string {
	return "circuits"
}

func toModel(c models.Circuit) circuitModel {
	return circuitModel(c)
}

func (m circuitModel) toCircuit() models.Circuit {
	return models.Circuit(m)
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&circuitModel{})
}

func (r *Repository) GetAll(ctx context.Context) ([]models.Circuit, error) {
	var rows []circuitModel
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list circuits: %w", err)
	}
	out := make([]models.Circuit, len(rows))
	for i, row := range rows {
		out[i] = row.toCircuit()
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*models.Circuit, error) {
	var row circuitModel
	result := r.db.WithContext(ctx).Take(&row, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrCircuitNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("get circuit %s: %w", id, result.Error)
	}
	c := row.toCircuit()
	return &c, nil
}

func (r *Repository) Create(ctx context.Context, c models.Circuit) error {
	row := toModel(c)
	err := r.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateCircuit
	}
	if err != nil {
		return fmt.Errorf("create circuit %s: %w", c.ID, err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, c models.Circuit) error {
	result := r.db.WithContext(ctx).Model(&circuitModel{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"state":           c.State,
			"site_name":       c.SiteName,
			"ckt_id":          c.CktID,
			"parent":          c.Parent,
			"link_type":       c.LinkType,
			"provider":        c.Provider,
			"z_loc":           c.ZLoc,
			"rtr_name_z_loc":  c.RtrNameZLoc,
			"to_description":  c.ToDescription,
			"rtr_port_z_loc":  c.RtrPortZLoc,
			"interf_ip_z_loc": c.InterfIPZLoc,
			"a_loc":           c.ALoc,
			"rtr_name_a_loc":  c.RtrNameALoc,
			"rtr_port":        c.RtrPort,
			"interf_ip_a_loc": c.InterfIPALoc,
			"bw_mbps":         c.BwMbps,
			"single_isp":      c.SingleISP,
			"ups_closet":      c.UPSCloset,
			"router_ip":       c.RouterIP,
		})
	if result.Error != nil {
		return fmt.Errorf("update circuit %s: %w", c.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCircuitNotFound
	}
	return nil
}
