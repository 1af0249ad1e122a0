// Package sizing derives capacity figures from a submission. Every function is
// pure and total: bad input yields zero, never an error.
package sizing

import (
	"math"
	"strings"

	"github.com/zaqqye/vdi_docgen/internal/intake"
)

// eps absorbs float noise before rounding, so 1580*2.0*1.10 stays 3476.
const eps = 1e-6

func ceil(x float64) int {
	return intake.ToInt(math.Ceil(math.Round(x/eps) * eps))
}

func floor(x float64) int {
	return intake.ToInt(math.Floor(math.Round(x/eps) * eps))
}

// Defaults applied when an input is absent or unreadable.
const (
	DefaultVMRAMGB      = 8.0
	DefaultBaseImageGB  = 40.0
	DefaultPolicyFactor = 2.0
	DefaultGrowthFactor = 1.10
	DefaultDeltaGB      = 6.0
	DefaultVMOverheadGB = 1.0
	DefaultImages       = 1
	DefaultVCPURatio    = 4.0
	DefaultVMVCPU       = 2.0
	DefaultMemHeadroom  = 0.10
	DefaultESXiOverhead = 8.0
	DefaultHASpareHosts = 1
)

type StorageInputs struct {
	StorageType  string
	Users        int
	Images       int
	VMRAMGB      float64
	BaseImageGB  float64
	DeltaGB      float64
	OverheadGB   float64
	PolicyFactor float64
	GrowthFactor float64
}

// DefaultStorageInputs returns the inputs used when nothing is posted.
func DefaultStorageInputs() StorageInputs {
	return StorageInputs{
		Images:       DefaultImages,
		VMRAMGB:      DefaultVMRAMGB,
		BaseImageGB:  DefaultBaseImageGB,
		DeltaGB:      DefaultDeltaGB,
		OverheadGB:   DefaultVMOverheadGB,
		PolicyFactor: DefaultPolicyFactor,
		GrowthFactor: DefaultGrowthFactor,
	}
}

// PolicyReplicated reports whether the storage type is sized with a storage
// policy factor (vSAN style).
func PolicyReplicated(storageType string) bool {
	switch strings.ToLower(strings.TrimSpace(storageType)) {
	case "vsan", "policy-replicated":
		return true
	}
	return false
}

// StorageGB estimates raw capacity in GB. ok is false when the storage type is
// not policy replicated; the estimate does not apply then. Negative sizes and
// factors count as zero; results beyond the int range saturate.
func StorageGB(in StorageInputs) (gb int, ok bool) {
	if !PolicyReplicated(in.StorageType) {
		return 0, false
	}
	users := math.Max(0, float64(in.Users))
	images := math.Max(0, float64(in.Images))
	perUser := math.Max(0, in.DeltaGB) + math.Max(0, in.VMRAMGB) + math.Max(0, in.OverheadGB)
	raw := (users*perUser + images*math.Max(0, in.BaseImageGB)) *
		math.Max(0, in.PolicyFactor) * math.Max(0, in.GrowthFactor)
	if raw <= 0 || math.IsNaN(raw) {
		return 0, true
	}
	return ceil(raw), true
}

type DensityInputs struct {
	HostCores    float64
	HostRAMGB    float64
	VCPURatio    float64
	VMVCPU       float64
	VMRAMGB      float64
	MemHeadroom  float64
	ESXiOverhead float64
	GPUCap       int
}

func DefaultDensityInputs() DensityInputs {
	return DensityInputs{
		VCPURatio:    DefaultVCPURatio,
		VMVCPU:       DefaultVMVCPU,
		VMRAMGB:      DefaultVMRAMGB,
		MemHeadroom:  DefaultMemHeadroom,
		ESXiOverhead: DefaultESXiOverhead,
	}
}

type DensityResult struct {
	CPUCap   int `json:"cpu_cap"`
	MemCap   int `json:"mem_cap"`
	GPUCap   int `json:"gpu_cap"`
	Sessions int `json:"sessions"`
}

// Density computes sessions per host as the tightest of the CPU, memory and
// (when set) GPU caps.
func Density(in DensityInputs) DensityResult {
	var res DensityResult
	if in.VMVCPU > 0 {
		res.CPUCap = nonNegative(floor(in.HostCores * in.VCPURatio / in.VMVCPU))
	}
	headroom := in.MemHeadroom
	if headroom > 1 {
		headroom /= 100
	}
	if headroom < 0 {
		headroom = 0
	}
	if in.VMRAMGB > 0 {
		usable := in.HostRAMGB*(1-headroom) - in.ESXiOverhead
		if usable > 0 {
			res.MemCap = nonNegative(floor(usable / in.VMRAMGB))
		}
	}
	res.GPUCap = nonNegative(in.GPUCap)

	sessions := min(res.CPUCap, res.MemCap)
	if res.GPUCap > 0 {
		sessions = min(sessions, res.GPUCap)
	}
	res.Sessions = nonNegative(sessions)
	return res
}

// HostsRequired is ceil(users/sessions) plus spare hosts, or 0 when no session
// fits on a host.
func HostsRequired(users, sessions, spare int) int {
	if sessions <= 0 || users <= 0 {
		return 0
	}
	hosts := users / sessions
	if users%sessions != 0 {
		hosts++
	}
	spare = nonNegative(spare)
	if hosts > math.MaxInt-spare {
		return math.MaxInt
	}
	return hosts + spare
}

// RegionShare is one region's slice of the user population.
type RegionShare struct {
	Region  string  `json:"region"`
	Percent float64 `json:"percent"`
	Users   int     `json:"users"`
}

// UsersByRegion splits total by percent, rounding each share.
func UsersByRegion(total int, shares []RegionShare) []RegionShare {
	out := make([]RegionShare, 0, len(shares))
	for _, s := range shares {
		s.Users = nonNegative(intake.ToInt(math.Round(float64(total) * s.Percent / 100)))
		out = append(out, s)
	}
	return out
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
