package sizing

import (
	"github.com/zaqqye/vdi_docgen/internal/intake"
	"github.com/zaqqye/vdi_docgen/internal/models"
	"github.com/zaqqye/vdi_docgen/internal/schema"
)

// Metrics are the derived figures shown next to a submission. They are
// recomputed on every read and never stored.
type Metrics struct {
	ConcurrentUsers int           `json:"concurrent_users"`
	StorageGB       *int          `json:"storage_gb"`
	Density         DensityResult `json:"density"`
	HostsRequired   int           `json:"hosts_required"`
	UsersByRegion   []RegionShare `json:"users_by_region"`
	Storage         StorageInputs `json:"-"`
	DensityInputs   DensityInputs `json:"-"`
}

type lookup interface {
	Text(key string) string
	Lookup(key string) (models.Value, bool)
}

func num(r lookup, key string, def float64) float64 {
	return intake.ParseFloat(r.Text(key), def)
}

func whole(r lookup, key string, def int) int {
	return intake.ParseInt(r.Text(key), def)
}

// StorageFrom reads the storage inputs of a submission, applying defaults.
func StorageFrom(r lookup) StorageInputs {
	d := DefaultStorageInputs()
	return StorageInputs{
		StorageType:  r.Text("storage_type"),
		Users:        whole(r, "concurrent_users", 0),
		Images:       whole(r, "num_images", d.Images),
		VMRAMGB:      num(r, "vm_ram_gb", d.VMRAMGB),
		BaseImageGB:  num(r, "base_image_gb", d.BaseImageGB),
		DeltaGB:      num(r, "delta_gb", d.DeltaGB),
		OverheadGB:   num(r, "per_vm_overhead_gb", d.OverheadGB),
		PolicyFactor: num(r, "policy_factor", d.PolicyFactor),
		GrowthFactor: num(r, "growth_factor", d.GrowthFactor),
	}
}

func DensityFrom(r lookup) DensityInputs {
	d := DefaultDensityInputs()
	return DensityInputs{
		HostCores:    num(r, "host_cpu_cores", 0),
		HostRAMGB:    num(r, "host_ram_gb", 0),
		VCPURatio:    num(r, "vcpu_to_pcpu_ratio", d.VCPURatio),
		VMVCPU:       num(r, "vm_vcpu", d.VMVCPU),
		VMRAMGB:      num(r, "vm_ram_gb", d.VMRAMGB),
		MemHeadroom:  num(r, "mem_headroom_pct", d.MemHeadroom),
		ESXiOverhead: num(r, "esxi_overhead_gb", d.ESXiOverhead),
		GPUCap:       whole(r, "gpu_session_cap", 0),
	}
}

// FromRecord computes every metric for rec. Unreadable inputs fall back to
// their defaults.
func FromRecord(r lookup) Metrics {
	m := Metrics{
		Storage:       StorageFrom(r),
		DensityInputs: DensityFrom(r),
	}
	m.ConcurrentUsers = m.Storage.Users
	if gb, ok := StorageGB(m.Storage); ok {
		m.StorageGB = &gb
	}
	m.Density = Density(m.DensityInputs)
	m.HostsRequired = HostsRequired(m.ConcurrentUsers, m.Density.Sessions, whole(r, "ha_spare_hosts", DefaultHASpareHosts))

	total := whole(r, "user_count", 0)
	if total == 0 {
		total = m.ConcurrentUsers
	}
	regions, _ := r.Lookup("regions")
	var shares []RegionShare
	for _, member := range schema.Regions {
		if !regions.Has(member.Option) {
			continue
		}
		shares = append(shares, RegionShare{Region: member.Option, Percent: num(r, member.Key, 0)})
	}
	m.UsersByRegion = UsersByRegion(total, shares)
	return m
}
