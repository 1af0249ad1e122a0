package intake

import (
	"errors"
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaqqye/vdi_docgen/internal/models"
	"github.com/zaqqye/vdi_docgen/internal/schema"
)

func presalesValues() url.Values {
	return url.Values{
		"customer_name": {"  Acme Corp "},
		"project_name":  {"Horizon Deploy"},
		"user_count":    {"1,500"},
	}
}

func TestNormalize_PresalesDefaultsAndTrim(t *testing.T) {
	rec, err := Normalize(schema.PresalesSchema(), presalesValues(), Options{})
	require.NoError(t, err)

	assert.Equal(t, schema.Presales, rec.Form)
	assert.Equal(t, "Acme Corp", rec.Text("customer_name"))
	assert.Equal(t, "1,500", rec.Text("user_count"))
	assert.Equal(t, "3", rec.Text("cs_count"))
	assert.Equal(t, "vSAN", rec.Text("storage_type"))
	assert.Equal(t, models.List(), rec.Fields["regions"])
	_, hasScope := rec.Fields[schema.ScopeKey]
	assert.False(t, hasScope)
	assert.Nil(t, rec.Extra)
}

func TestNormalize_NonNumericFallsBackToDefault(t *testing.T) {
	v := presalesValues()
	v.Set("host_cpu_cores", "abc")
	v.Set("vm_ram_gb", "lots")
	rec, err := Normalize(schema.PresalesSchema(), v, Options{})
	require.NoError(t, err)
	assert.Equal(t, "", rec.Text("host_cpu_cores"))
	assert.Equal(t, "8", rec.Text("vm_ram_gb"))
}

func TestNormalize_MultiselectOrder(t *testing.T) {
	v := presalesValues()
	v["regions"] = []string{"LATAM", "Antarctica", "EMEA", "EMEA"}
	v.Set("region_pct_latam", "40")
	v.Set("region_pct_emea", "60")
	rec, err := Normalize(schema.PresalesSchema(), v, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"EMEA", "LATAM", "Antarctica"}, rec.Fields["regions"].List)
}

func TestNormalize_RegionPercentages(t *testing.T) {
	cases := []struct {
		name string
		emea string
		apac string
		ok   bool
	}{
		{"exact", "60", "40", true},
		{"with percent sign", "60%", "40 %", true},
		{"under", "50", "40", false},
		{"over", "70", "40", false},
		{"blank member counts as zero", "90", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := presalesValues()
			v["regions"] = []string{"EMEA", "APAC"}
			v.Set("region_pct_emea", tc.emea)
			v.Set("region_pct_apac", tc.apac)
			v.Set("region_pct_latam", "99")
			_, err := Normalize(schema.PresalesSchema(), v, Options{})
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields(), "regions")
		})
	}
}

func TestNormalize_RequiredFields(t *testing.T) {
	_, err := Normalize(schema.PresalesSchema(), url.Values{"customer_name": {" "}}, Options{})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"customer_name": "is required",
		"project_name":  "is required",
	}, verr.Fields())
	assert.Contains(t, err.Error(), "customer_name: is required")

	_, err = Normalize(schema.PresalesSchema(), url.Values{}, Options{SkipValidation: true})
	assert.NoError(t, err)
}

func TestNormalize_PDGScopes(t *testing.T) {
	pdg := schema.PDGSchema()
	v := url.Values{
		"pod_scope":          {"multi"},
		"global_ntp_servers": {"10.0.0.1"},
		"pod1_mgmt_cidr":     {"10.1.0.0/24"},
		"pod2_mgmt_cidr":     {"10.2.0.0/24"},
		"gslb_enable":        {"Yes"},
		"action":             {"submit"},
		"favourite_colour":   {"blue"},
	}
	rec, err := Normalize(pdg, v, Options{SkipValidation: true})
	require.NoError(t, err)
	assert.Equal(t, "multi", rec.Text(schema.ScopeKey))
	assert.Equal(t, "10.2.0.0/24", rec.Text("pod2_mgmt_cidr"))
	assert.Equal(t, "Yes", rec.Text("gslb_enable"))
	assert.Equal(t, models.Fields{"favourite_colour": models.Scalar("blue")}, rec.Extra)

	single := false
	rec, err = Normalize(pdg, v, Options{SkipValidation: true, MultiSite: &single})
	require.NoError(t, err)
	_, ok := rec.Fields["pod2_mgmt_cidr"]
	assert.False(t, ok)
	assert.Equal(t, "10.2.0.0/24", rec.Extra.Text("pod2_mgmt_cidr"))
	assert.Equal(t, "single", rec.Text(schema.ScopeKey))
}

func TestNormalize_PDGRequiredUsesPrefixedKeys(t *testing.T) {
	_, err := Normalize(schema.PDGSchema(), url.Values{}, Options{})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	f := verr.Fields()
	assert.Contains(t, f, "global_project_name")
	assert.Contains(t, f, "pod1_mgmt_cidr")
	assert.NotContains(t, f, "pod2_mgmt_cidr")
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 1500.0, ParseFloat("1,500", 0))
	assert.Equal(t, 25.0, ParseFloat(" 25% ", 0))
	assert.Equal(t, 7.5, ParseFloat("abc", 7.5))
	assert.Equal(t, 7.5, ParseFloat("NaN", 7.5))
	assert.Equal(t, 3, ParseInt("3.9", 0))
	assert.Equal(t, 9, ParseInt("", 9))
	assert.Equal(t, math.MaxInt, ParseInt("1e30", 0))
	assert.Equal(t, math.MinInt, ParseInt("-1e30", 0))
	assert.Equal(t, 9, ParseInt("1e400", 9))
}

func TestToInt(t *testing.T) {
	assert.Equal(t, 0, ToInt(math.NaN()))
	assert.Equal(t, math.MaxInt, ToInt(math.Inf(1)))
	assert.Equal(t, math.MinInt, ToInt(math.Inf(-1)))
	assert.Equal(t, math.MaxInt, ToInt(float64(math.MaxInt)))
	assert.Equal(t, -3, ToInt(-3.7))
}

func TestValuesFromFields(t *testing.T) {
	v := ValuesFromFields(models.Fields{"a": models.Scalar("x"), "b": models.List("1", "2")})
	assert.Equal(t, url.Values{"a": {"x"}, "b": {"1", "2"}}, v)
}
