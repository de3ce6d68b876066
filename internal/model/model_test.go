package model_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/manabi/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestSection_AbsentRoundTrip(t *testing.T) {
	var s model.School
	require.NoError(t, json.Unmarshal([]byte(`{"name":"A","governance":null}`), &s))
	assert.False(t, s.Governance.IsSet())
	assert.False(t, s.Infrastructure.IsSet())

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.NotContains(t, string(out), `"governance"`, "absent sections are omitted")
}

func TestSection_PresentRoundTrip(t *testing.T) {
	var s model.School
	require.NoError(t, json.Unmarshal([]byte(`{"governance":{"has_ict_policy":true}}`), &s))
	gov, ok := s.Governance.Get()
	require.True(t, ok)
	assert.True(t, gov.HasICTPolicy)
	assert.False(t, gov.HasICTBudget)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"governance":{"has_ict_policy":true`)
}

func TestSection_RejectsUnknownKeys(t *testing.T) {
	var s model.School
	err := json.Unmarshal([]byte(`{"governance":{"hasICTPolicy":true}}`), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hasICTPolicy")
	assert.False(t, s.Governance.IsSet())

	var r model.ICTReport
	err = json.Unmarshal([]byte(`{"date":"2024-03-01","infrastructure":{"computer_count":3}}`), &r)
	require.Error(t, err, "report sections are strict too")
}

func TestSection_OrZeroWhenAbsent(t *testing.T) {
	var sec model.Section[model.Governance]
	assert.Equal(t, model.Governance{}, sec.OrZero())
	assert.True(t, sec.IsZero())

	sec = model.Some(model.Governance{HasICTBudget: true})
	assert.True(t, sec.OrZero().HasICTBudget)
	assert.False(t, sec.IsZero())
}

func TestParseDate(t *testing.T) {
	d, err := model.ParseDate("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, model.NewDate(2024, time.June, 1), d)

	d, err = model.ParseDate("2024-06-01T23:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", d.String())

	_, err = model.ParseDate("June 1st")
	assert.Error(t, err)
}

func TestDate_JSON(t *testing.T) {
	var r model.ICTReport
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2025-01-15","period":"JAN 2025"}`), &r))
	assert.Equal(t, "2025-01-15", r.Date.String())

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"date":"2025-01-15"`)

	assert.Error(t, json.Unmarshal([]byte(`{"date":20250115}`), &r))
}

func validSchool() model.School {
	return model.School{
		Name:           "Kagarama Primary",
		District:       "Kicukiro",
		Environment:    model.EnvironmentUrban,
		TotalStudents:  800,
		MaleStudents:   390,
		FemaleStudents: 410,
		TotalTeachers:  20,
	}
}

func TestValidateSchool_Valid(t *testing.T) {
	s := validSchool()
	s.Latitude = ptr(-1.97)
	s.HumanCapacity = model.Some(model.HumanCapacity{
		ICTTrainedTeachers:     12,
		TeacherCompetencyLevel: model.CompetencyIntermediate,
	})
	assert.NoError(t, model.ValidateSchool(s))
}

func TestValidateSchool_CollectsEveryField(t *testing.T) {
	s := validSchool()
	s.Name = "   "
	s.Environment = "Suburban"
	s.Latitude = ptr(120.0)
	s.HumanCapacity = model.Some(model.HumanCapacity{TeacherCompetencyLevel: "Expert"})
	s.StudentEngagement = model.Some(model.StudentEngagement{StudentDigitalLiteracyRate: 140})

	err := model.ValidateSchool(s)
	require.Error(t, err)
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))

	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "environment")
	assert.Contains(t, fields, "latitude")
	assert.Contains(t, fields, "human_capacity.teacher_competency_level")
	assert.Contains(t, fields, "student_engagement.student_digital_literacy_rate")
}

func TestValidateSchool_EnrollmentMismatch(t *testing.T) {
	s := validSchool()
	s.MaleStudents = 500
	err := model.ValidateSchool(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot exceed total_students")
}

func TestValidateSchool_TrainedTeachersAboveTotal(t *testing.T) {
	s := validSchool()
	s.HumanCapacity = model.Some(model.HumanCapacity{ICTTrainedTeachers: 21})
	err := model.ValidateSchool(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "human_capacity.ict_trained_teachers")
}

func TestValidateReport(t *testing.T) {
	r := model.ICTReport{Date: model.NewDate(2025, time.January, 15), Period: "JAN 2025"}
	r.Infrastructure = model.Some(model.ReportInfrastructure{Computers: 10, InternetConnection: model.ConnectionFast})
	assert.NoError(t, model.ValidateReport(r))

	r.Date = model.Date{}
	r.Infrastructure = model.Some(model.ReportInfrastructure{Computers: -1, InternetConnection: "Warp"})
	err := model.ValidateReport(r)
	require.Error(t, err)
	msg := err.Error()
	assert.True(t, strings.Contains(msg, "date"), msg)
	assert.True(t, strings.Contains(msg, "infrastructure.computers"), msg)
	assert.True(t, strings.Contains(msg, "infrastructure.internet_connection"), msg)
}

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, model.RoleAtLeast(model.RoleAdmin, model.RoleFieldOfficer))
	assert.True(t, model.RoleAtLeast(model.RoleFieldOfficer, model.RoleFieldOfficer))
	assert.False(t, model.RoleAtLeast(model.RoleViewer, model.RoleFieldOfficer))
	assert.False(t, model.RoleAtLeast(model.Role("ghost"), model.RoleViewer))
	assert.False(t, model.ValidRole("ghost"))
}

func TestStageRank(t *testing.T) {
	assert.Less(t, model.StageLatent.Rank(), model.StageEmerging.Rank())
	assert.Less(t, model.StageEmerging.Rank(), model.StageEstablished.Rank())
	assert.Less(t, model.StageEstablished.Rank(), model.StageAdvanced.Rank())
	assert.Less(t, model.ReadinessLow.Rank(), model.ReadinessMedium.Rank())
	assert.Less(t, model.ReadinessMedium.Rank(), model.ReadinessHigh.Rank())
}

func TestValidateAccountRequest(t *testing.T) {
	assert.NoError(t, model.ValidateAccountRequest(model.CreateAccountRequest{Name: "officer-1", Role: model.RoleFieldOfficer}))

	err := model.ValidateAccountRequest(model.CreateAccountRequest{Name: " ", Role: "root", APIKey: "short"})
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"name", "role", "api_key"}, fields)
}
