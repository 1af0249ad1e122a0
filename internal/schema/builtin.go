package schema

// Form names of the built-in questionnaires.
const (
	Presales = "presales"
	PDG      = "pdg"
)

// Region options of the presales regional distribution.
var Regions = []PercentMember{
	{Option: "Continental US", Key: "region_pct_continental_us"},
	{Option: "EMEA", Key: "region_pct_emea"},
	{Option: "APAC", Key: "region_pct_apac"},
	{Option: "LATAM", Key: "region_pct_latam"},
}

func presalesFields() []FieldDefinition {
	fields := []FieldDefinition{
		{Section: "Customer & Project", Key: "customer_name", Label: "Customer Name", Type: TypeText, Required: true},
		{Section: "Customer & Project", Key: "project_name", Label: "Project Name", Type: TypeText, Required: true},
		{Section: "Customer & Project", Key: "primary_contact", Label: "Primary Contact (name/email)", Type: TypeText},
		{Section: "Customer & Project", Key: "voc", Label: "Voice of Customer", Type: TypeTextarea},
		{Section: "Customer & Project", Key: "timeline_notes", Label: "Timeline Notes", Type: TypeTextarea},

		{Section: "Users & Regions", Key: "user_count", Label: "Total Named Users", Type: TypeNumber},
		{Section: "Users & Regions", Key: "concurrent_users", Label: "Concurrent Users", Type: TypeNumber},
		{Section: "Users & Regions", Key: "regions", Label: "Regions Served", Type: TypeMultiSelect, Options: []string{"Continental US", "EMEA", "APAC", "LATAM"}},
	}
	for _, r := range Regions {
		fields = append(fields, FieldDefinition{Section: "Users & Regions", Key: r.Key, Label: r.Option + " (% of users)", Type: TypePercent})
	}
	fields = append(fields, []FieldDefinition{
		{Section: "Users & Regions", Key: "remote_access", Label: "External / Remote Access", Type: TypeSelect, Options: []string{"Yes", "No"}, Default: "Yes"},
		{Section: "Users & Regions", Key: "partner_laptop_access", Label: "Contractor / Partner Device Access", Type: TypeSelect, Options: []string{"No", "Yes"}, Default: "No"},

		{Section: "Identity", Key: "ad_domain", Label: "Active Directory Domain", Type: TypeText},
		{Section: "Identity", Key: "idp_integration", Label: "3rd-Party IdP Integration", Type: TypeSelect, Options: []string{"None", "Entra ID", "Okta", "Ping", "ADFS", "Other"}, Default: "None"},
		{Section: "Identity", Key: "truesso_enabled", Label: "TrueSSO", Type: TypeSelect, Options: []string{"Yes", "No"}, Default: "Yes"},

		{Section: "Horizon Components", Key: "cs_count", Label: "Connection Servers", Type: TypeNumber, Default: "3"},
		{Section: "Horizon Components", Key: "cs_replicas", Label: "Replica Connection Servers", Type: TypeNumber, Default: "2"},
		{Section: "Horizon Components", Key: "uag_count", Label: "Unified Access Gateways", Type: TypeNumber, Default: "3"},
		{Section: "Horizon Components", Key: "enroll_count", Label: "Enrollment Servers", Type: TypeNumber, Default: "2"},
		{Section: "Horizon Components", Key: "av_mgr_count", Label: "App Volumes Managers", Type: TypeNumber, Default: "3"},
		{Section: "Horizon Components", Key: "features", Label: "Features", Type: TypeMultiSelect, Options: []string{"Instant Clones", "FSLogix", "DEM", "App Volumes"}},

		{Section: "Infrastructure", Key: "vcf_domains", Label: "VCF Workload Domains", Type: TypeText},
		{Section: "Infrastructure", Key: "storage_type", Label: "Primary Storage Type", Type: TypeSelect, Options: []string{"vSAN", "Pure Storage", "PowerScale", "Other"}, Default: "vSAN"},
		{Section: "Infrastructure", Key: "gpu_required", Label: "GPU Required", Type: TypeSelect, Options: []string{"No", "Yes"}, Default: "No"},

		{Section: "Storage Sizing", Key: "num_images", Label: "Golden Images", Type: TypeNumber, Default: "1"},
		{Section: "Storage Sizing", Key: "base_image_gb", Label: "Base Image Size (GB)", Type: TypeNumber, Default: "40"},
		{Section: "Storage Sizing", Key: "delta_gb", Label: "Per-Desktop Delta (GB)", Type: TypeNumber, Default: "6"},
		{Section: "Storage Sizing", Key: "per_vm_overhead_gb", Label: "Per-Desktop Overhead (GB)", Type: TypeNumber, Default: "1"},
		{Section: "Storage Sizing", Key: "policy_factor", Label: "Storage Policy Factor", Type: TypeNumber, Default: "2.0", Help: "2.0 for FTT=1 mirroring"},
		{Section: "Storage Sizing", Key: "growth_factor", Label: "Growth Factor", Type: TypeNumber, Default: "1.10"},

		{Section: "Host Density", Key: "host_cpu_cores", Label: "Physical Cores per Host", Type: TypeNumber},
		{Section: "Host Density", Key: "host_ram_gb", Label: "RAM per Host (GB)", Type: TypeNumber},
		{Section: "Host Density", Key: "vcpu_to_pcpu_ratio", Label: "vCPU:pCPU Ratio", Type: TypeNumber, Default: "4"},
		{Section: "Host Density", Key: "vm_vcpu", Label: "vCPU per Desktop", Type: TypeNumber, Default: "2"},
		{Section: "Host Density", Key: "vm_ram_gb", Label: "RAM per Desktop (GB)", Type: TypeNumber, Default: "8"},
		{Section: "Host Density", Key: "mem_headroom_pct", Label: "Memory Headroom", Type: TypeNumber, Default: "0.10", Help: "fraction (0.10) or percent (10)"},
		{Section: "Host Density", Key: "esxi_overhead_gb", Label: "Hypervisor Overhead (GB)", Type: TypeNumber, Default: "8"},
		{Section: "Host Density", Key: "gpu_session_cap", Label: "GPU Sessions per Host (0 = none)", Type: TypeNumber, Default: "0"},
		{Section: "Host Density", Key: "ha_spare_hosts", Label: "HA Spare Hosts", Type: TypeNumber, Default: "1"},

		{Section: "Deliverables", Key: "deliverables", Label: "Documents to Generate", Type: TypeMultiSelect, Options: []string{"Presales Summary", "SOW", "HLD", "LOE", "WBS"}},

		{Section: "Notes", Key: "assumptions", Label: "Assumptions", Type: TypeTextarea},
		{Section: "Notes", Key: "constraints", Label: "Constraints", Type: TypeTextarea},
		{Section: "Notes", Key: "risks", Label: "Risks", Type: TypeTextarea},
		{Section: "Notes", Key: "out_of_scope", Label: "Out of Scope", Type: TypeTextarea},
	}...)
	return fields
}

func pdgFields() []FieldDefinition {
	return []FieldDefinition{
		{Section: "Global", Key: "project_name", Label: "Project Name", Type: TypeText, Required: true},
		{Section: "Global", Key: "customer_name", Label: "Customer Name", Type: TypeText, Required: true},
		{Section: "Global", Key: "primary_contact", Label: "Primary Technical Contact (name/email)", Type: TypeText, Required: true},
		{Section: "Global", Key: "support_contacts", Label: "Operations / Support Contacts", Type: TypeText},
		{Section: "Global", Key: "change_window", Label: "Change Window / Maintenance Policy", Type: TypeText},
		{Section: "Global", Key: "certificates_owner", Label: "Certificates Owner (who renews/manages)", Type: TypeText, Required: true},
		{Section: "Global", Key: "ntp_servers", Label: "NTP Servers", Type: TypeText, Required: true},
		{Section: "Global", Key: "dns_servers", Label: "DNS Servers", Type: TypeText, Required: true},
		{Section: "Global", Key: "dns_zones", Label: "DNS Zones/Suffixes", Type: TypeText},
		{Section: "Global", Key: "idp_integration", Label: "3rd-Party IdP Integration", Type: TypeSelect, Options: []string{"None", "Entra ID", "Okta", "Ping", "ADFS", "Other"}, Required: true},
		{Section: "Global", Key: "idp_provider_notes", Label: "IdP Notes (If Other)", Type: TypeText},

		{Section: "Networking", Key: "mgmt_cidr", Label: "Management Network CIDR", Type: TypeText, Required: true, Scope: ScopeSite},
		{Section: "Networking", Key: "vmotion_cidr", Label: "vMotion Network CIDR", Type: TypeText, Scope: ScopeSite},
		{Section: "Networking", Key: "vm_networks", Label: "VM Networks (desktop pools, infra)", Type: TypeText, Required: true, Scope: ScopeSite},
		{Section: "Networking", Key: "vsan_storage_cidr", Label: "vSAN/Storage Network CIDR", Type: TypeText, Scope: ScopeSite},
		{Section: "Networking", Key: "dmz_uag_cidr", Label: "DMZ / UAG Network CIDR", Type: TypeText, Scope: ScopeSite},
		{Section: "Networking", Key: "vip_ranges", Label: "VIP IPs / Ranges reserved", Type: TypeText, Scope: ScopeSite},
		{Section: "Networking", Key: "vlans", Label: "VLAN IDs (mgmt, vMotion, vSAN/Storage, UAG DMZ)", Type: TypeText, Required: true, Scope: ScopeSite},
		{Section: "Networking", Key: "firewall_zones", Label: "Firewall Zones and Inter-site Rules", Type: TypeText, Scope: ScopeSite},

		{Section: "Compute/Storage", Key: "host_count", Label: "ESXi Hosts (count per pod)", Type: TypeText, Required: true, Scope: ScopeSite},
		{Section: "Compute/Storage", Key: "cpu_per_host", Label: "CPU per Host", Type: TypeText, Required: true, Scope: ScopeSite},
		{Section: "Compute/Storage", Key: "ram_per_host", Label: "RAM per Host", Type: TypeText, Required: true, Scope: ScopeSite},
		{Section: "Compute/Storage", Key: "storage_type", Label: "Primary Storage Type", Type: TypeSelect, Options: []string{"vSAN", "Pure Storage", "PowerScale", "Other"}, Required: true, Scope: ScopeSite},
		{Section: "Compute/Storage", Key: "storage_model", Label: "Storage Model (if external array)", Type: TypeText, Scope: ScopeSite},
		{Section: "Compute/Storage", Key: "storage_capacity_tb", Label: "Usable Capacity (TB)", Type: TypeText, Scope: ScopeSite},

		{Section: "Load Balancing", Key: "load_balancer", Label: "Load Balancer Platform", Type: TypeSelect, Options: []string{"F5 BIG-IP", "Avi / NSX ALB", "Netscaler (Citrix ADC)", "Other", "None"}, Required: true, Scope: ScopeSite},
		{Section: "Load Balancing", Key: "lb_partitions", Label: "LB Partitions / Tenants", Type: TypeText, Scope: ScopeSite},
		{Section: "Load Balancing", Key: "health_monitors", Label: "Health Monitors (types/intervals)", Type: TypeText, Scope: ScopeSite},

		{Section: "Horizon", Key: "uag_count", Label: "UAG Count", Type: TypeText, Required: true, Scope: ScopeSite},
		{Section: "Horizon", Key: "cs_count", Label: "Connection Server Count", Type: TypeText, Required: true, Scope: ScopeSite},
		{Section: "Horizon", Key: "admin_console_url", Label: "Horizon Admin URL", Type: TypeText, Scope: ScopeSite},
		{Section: "Horizon", Key: "uag_external_url", Label: "UAG External URL (per site)", Type: TypeText, Scope: ScopeSite},
		{Section: "Horizon", Key: "uag_internal_url", Label: "UAG Internal URL (per site)", Type: TypeText, Scope: ScopeSite},
		{Section: "Horizon", Key: "dem_configshare", Label: "DEM Config Share (path)", Type: TypeText, Scope: ScopeSite},
		{Section: "Horizon", Key: "fslogix_profile", Label: "FSLogix Profile Path/Provider", Type: TypeText, Scope: ScopeSite},
		{Section: "Horizon", Key: "appvols_manager_url", Label: "App Volumes Manager URL", Type: TypeText, Scope: ScopeSite},

		{Section: "Certificates", Key: "wildcard_fqdn", Label: "Wildcard/SAN FQDNs", Type: TypeText, Required: true},
		{Section: "Certificates", Key: "sni_requirements", Label: "SNI Requirements", Type: TypeText},
		{Section: "Certificates", Key: "pkcs12_escrow", Label: "PKCS#12 Escrowed?", Type: TypeSelect, Options: []string{"Yes", "No", "Planned"}, Required: true},

		{Section: "Ops", Key: "monitoring_tools", Label: "Monitoring/Logging Tools", Type: TypeText},
		{Section: "Ops", Key: "backup_targets", Label: "Backup/Recovery Targets", Type: TypeText},

		{Section: "GSLB", Key: "gslb_enable", Label: "Enable GSLB?", Type: TypeSelect, Options: []string{"Yes", "No"}, Scope: ScopeMultiSite},
		{Section: "GSLB", Key: "gslb_fqdns", Label: "GSLB FQDN(s) (Internal/External URLs)", Type: TypeText, Scope: ScopeMultiSite},
		{Section: "GSLB", Key: "gslb_gtm", Label: "GTM configuration (data centers, pools, monitors)", Type: TypeText, Scope: ScopeMultiSite},
		{Section: "GSLB", Key: "gslb_ltm_vips", Label: "LTM VIPs per site (UAG, CS, Admin, App Volumes, DEM)", Type: TypeText, Scope: ScopeMultiSite},
		{Section: "GSLB", Key: "gslb_monitors", Label: "Health monitors (types, intervals, response codes)", Type: TypeText, Scope: ScopeMultiSite},
		{Section: "GSLB", Key: "gslb_policy", Label: "Failover/steering policy (round-robin, topology, latency, geo)", Type: TypeText, Scope: ScopeMultiSite},
		{Section: "GSLB", Key: "gslb_certs", Label: "Certificates & SNI (SANs/wildcards, renewal ownership)", Type: TypeText, Scope: ScopeMultiSite},
	}
}

func PresalesSchema() *Schema {
	return mustNew(Schema{
		Name:          Presales,
		Title:         "Presales Discovery",
		SiteLabel:     "Pod",
		Fields:        presalesFields(),
		PercentGroups: []PercentGroup{{Key: "regions", Label: "Regional Distribution", Members: Regions}},
	})
}

func PDGSchema() *Schema {
	return mustNew(Schema{
		Name:             PDG,
		Title:            "Pre-Deployment Guide (PDG)",
		SiteLabel:        "Pod",
		Prefixed:         true,
		MultiSiteHeading: "GSLB (Multi-Pod)",
		Fields:           pdgFields(),
	})
}

// Default returns a registry with the built-in questionnaires.
func Default() *Registry {
	return NewRegistry(PresalesSchema(), PDGSchema())
}

func mustNew(s Schema) *Schema {
	out, err := New(s)
	if err != nil {
		panic(err)
	}
	return out
}
