package http

import (
	"time"

	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

type criteriaJSON struct {
	Detectability int `json:"d"`
	Occurrence    int `json:"o"`
	Severity      int `json:"s"`
}

func (c criteriaJSON) toModel() model.Criteria {
	return model.Criteria{
		Detectability: types.Rating(c.Detectability),
		Occurrence:    types.Rating(c.Occurrence),
		Severity:      types.Rating(c.Severity),
	}
}

func toCriteriaJSON(c model.Criteria) criteriaJSON {
	return criteriaJSON{
		Detectability: int(c.Detectability),
		Occurrence:    int(c.Occurrence),
		Severity:      int(c.Severity),
	}
}

type contextJSON struct {
	Scope     string `json:"scope"`
	UnitID    string `json:"unit_id,omitempty"`
	ProjectID int64  `json:"project_id,omitempty"`
	ProcessID int64  `json:"process_id"`
}

func (c contextJSON) toModel() model.RiskContext {
	return model.RiskContext{
		Scope:     types.Scope(c.Scope),
		UnitID:    types.UnitID(c.UnitID),
		ProjectID: c.ProjectID,
		ProcessID: c.ProcessID,
	}
}

func toContextJSON(c model.RiskContext) contextJSON {
	return contextJSON{
		Scope:     c.Scope.String(),
		UnitID:    c.UnitID.String(),
		ProjectID: c.ProjectID,
		ProcessID: c.ProcessID,
	}
}

type riskResponse struct {
	ID              int64        `json:"id"`
	InfoID          int64        `json:"info_id"`
	Kind            string       `json:"kind"`
	Context         contextJSON  `json:"context"`
	ReportDate      string       `json:"report_date"`
	ReporterID      string       `json:"reporter_id"`
	Confirmed       bool         `json:"confirmed"`
	OwnerID         string       `json:"owner_id,omitempty"`
	ReviewDate      string       `json:"review_date"`
	ArchivedAt      *time.Time   `json:"archived_at,omitempty"`
	Threshold       criteriaJSON `json:"threshold"`
	Comment         string       `json:"comment,omitempty"`
	TreatmentTaskID int64        `json:"treatment_task_id,omitempty"`
	ThresholdValue  int          `json:"threshold_value"`
	LatestLevel     int          `json:"latest_level"`
	LatestEvalDate  string       `json:"latest_eval_date,omitempty"`
	Status          string       `json:"status"`
	Stage           int          `json:"stage"`
	StageName       string       `json:"stage_name"`
	Priority        int          `json:"priority"`
}

func toRiskResponse(r *model.Risk) riskResponse {
	resp := riskResponse{
		ID:              r.ID,
		InfoID:          r.InfoID,
		Kind:            r.Kind.String(),
		Context:         toContextJSON(r.Context),
		ReportDate:      r.ReportDate.Format(time.DateOnly),
		ReporterID:      r.ReporterID,
		Confirmed:       r.Confirmed,
		OwnerID:         r.OwnerID,
		ReviewDate:      r.ReviewDate.Format(time.DateOnly),
		ArchivedAt:      r.ArchivedAt,
		Threshold:       toCriteriaJSON(r.Threshold),
		Comment:         r.Comment,
		TreatmentTaskID: r.TreatmentTaskID,
		ThresholdValue:  r.ThresholdValue,
		LatestLevel:     r.LatestLevel,
		Status:          r.Status.String(),
		Stage:           int(r.Stage),
		StageName:       r.Stage.String(),
		Priority:        r.Priority,
	}
	if r.LatestEvalDate != nil {
		resp.LatestEvalDate = r.LatestEvalDate.Format(time.DateOnly)
	}
	return resp
}

type reportRiskRequest struct {
	InfoID     int64         `json:"info_id"`
	Kind       string        `json:"kind"`
	Context    contextJSON   `json:"context"`
	ReportDate *date         `json:"report_date,omitempty"`
	ReviewDate *date         `json:"review_date,omitempty"`
	OwnerID    string        `json:"owner_id,omitempty"`
	Threshold  *criteriaJSON `json:"threshold,omitempty"`
	Comment    string        `json:"comment,omitempty"`
}

type updateRiskRequest struct {
	Kind       *string      `json:"kind,omitempty"`
	Context    *contextJSON `json:"context,omitempty"`
	OwnerID    *string      `json:"owner_id,omitempty"`
	ReportDate *date        `json:"report_date,omitempty"`
	ReviewDate *date        `json:"review_date,omitempty"`
	Comment    *string      `json:"comment,omitempty"`
}

// date is a calendar day encoded as YYYY-MM-DD
type date struct {
	time.Time
}

func (d *date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return &time.ParseError{Layout: time.DateOnly, Value: s}
	}
	t, err := time.Parse(time.DateOnly, s[1:len(s)-1])
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d *date) value() time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}

func (d *date) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

type riskInfoJSON struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	ShortName   string `json:"short_name,omitempty"`
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
	Description string `json:"description,omitempty"`
	Cause       string `json:"cause,omitempty"`
	Consequence string `json:"consequence,omitempty"`
	Control     string `json:"control,omitempty"`
	Action      string `json:"action,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
}

func (r riskInfoJSON) toModel() *model.RiskInfo {
	return &model.RiskInfo{
		ID:          r.ID,
		Name:        r.Name,
		ShortName:   r.ShortName,
		Category:    types.CategoryID(r.Category),
		Subcategory: r.Subcategory,
		Description: r.Description,
		Cause:       r.Cause,
		Consequence: r.Consequence,
		Control:     r.Control,
		Action:      r.Action,
	}
}

func toRiskInfoJSON(r *model.RiskInfo) riskInfoJSON {
	return riskInfoJSON{
		ID:          r.ID,
		Name:        r.Name,
		ShortName:   r.ShortName,
		Category:    r.Category.String(),
		Subcategory: r.Subcategory,
		Description: r.Description,
		Cause:       r.Cause,
		Consequence: r.Consequence,
		Control:     r.Control,
		Action:      r.Action,
		CreatedBy:   r.CreatedBy,
	}
}

type evaluationRequest struct {
	Criteria criteriaJSON `json:"criteria"`
	Date     *date        `json:"date,omitempty"`
	Comment  string       `json:"comment,omitempty"`
}

type evaluationResponse struct {
	ID         int64        `json:"id"`
	RiskID     int64        `json:"risk_id"`
	EvalDate   string       `json:"eval_date"`
	ReviewDate string       `json:"review_date"`
	Criteria   criteriaJSON `json:"criteria"`
	IsValid    bool         `json:"is_valid"`
	Comment    string       `json:"comment,omitempty"`
}

func toEvaluationResponse(e *model.Evaluation) evaluationResponse {
	return evaluationResponse{
		ID:         e.ID,
		RiskID:     e.RiskID,
		EvalDate:   e.EvalDate.Format(time.DateOnly),
		ReviewDate: e.ReviewDate.Format(time.DateOnly),
		Criteria:   toCriteriaJSON(e.Criteria),
		IsValid:    e.IsValid,
		Comment:    e.Comment,
	}
}

type taskResponse struct {
	ID              int64  `json:"id"`
	ProjectID       int64  `json:"project_id"`
	ParentID        int64  `json:"parent_id,omitempty"`
	RiskID          int64  `json:"risk_id,omitempty"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	TargetCriterion string `json:"target_criterion,omitempty"`
	Closed          bool   `json:"closed"`
	Active          bool   `json:"active"`
}

func toTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:              t.ID,
		ProjectID:       t.ProjectID,
		ParentID:        t.ParentID,
		RiskID:          t.RiskID,
		Name:            t.Name,
		Description:     t.Description,
		TargetCriterion: t.TargetCriterion.String(),
		Closed:          t.Closed,
		Active:          t.Active,
	}
}

type subtaskRequest struct {
	Name      string `json:"name"`
	Criterion string `json:"criterion,omitempty"`
}

type activityResponse struct {
	ID         string     `json:"id"`
	RiskID     int64      `json:"risk_id"`
	Summary    string     `json:"summary"`
	Note       string     `json:"note,omitempty"`
	AssigneeID string     `json:"assignee_id,omitempty"`
	Deadline   string     `json:"deadline"`
	Done       bool       `json:"done"`
	DoneAt     *time.Time `json:"done_at,omitempty"`
}

func toActivityResponse(a *model.Activity) activityResponse {
	return activityResponse{
		ID:         a.ID.String(),
		RiskID:     a.RiskID,
		Summary:    a.Summary,
		Note:       a.Note,
		AssigneeID: a.AssigneeID,
		Deadline:   a.Deadline.Format(time.DateOnly),
		Done:       a.Done,
		DoneAt:     a.DoneAt,
	}
}

type ownerJSON struct {
	UnitID    string `json:"unit_id,omitempty"`
	ProjectID int64  `json:"project_id,omitempty"`
}

func (o ownerJSON) toModel() model.Owner {
	if o.ProjectID != 0 {
		return model.ProjectOwner(o.ProjectID)
	}
	return model.UnitOwner(types.UnitID(o.UnitID))
}

func toOwnerJSON(o model.Owner) ownerJSON {
	return ownerJSON{
		UnitID:    o.UnitID.String(),
		ProjectID: o.ProjectID,
	}
}

type processJSON struct {
	ID            int64     `json:"id,omitempty"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Description   string    `json:"description,omitempty"`
	ResponsibleID string    `json:"responsible_id,omitempty"`
	Owner         ownerJSON `json:"owner"`
	StaffIDs      []string  `json:"staff_ids,omitempty"`
	Sequence      int       `json:"sequence"`
	IsCore        bool      `json:"is_core"`
}

func (p processJSON) toModel() *model.Process {
	return &model.Process{
		ID:            p.ID,
		Name:          p.Name,
		Type:          types.ProcessType(p.Type),
		Description:   p.Description,
		ResponsibleID: p.ResponsibleID,
		Owner:         p.Owner.toModel(),
		StaffIDs:      p.StaffIDs,
	}
}

func toProcessJSON(p *model.Process) processJSON {
	return processJSON{
		ID:            p.ID,
		Name:          p.Name,
		Type:          p.Type.String(),
		Description:   p.Description,
		ResponsibleID: p.ResponsibleID,
		Owner:         toOwnerJSON(p.Owner),
		StaffIDs:      p.StaffIDs,
		Sequence:      p.Sequence,
		IsCore:        p.IsCore,
	}
}

type partnerJSON struct {
	ID         int64  `json:"id,omitempty"`
	Name       string `json:"name"`
	IsCustomer bool   `json:"is_customer"`
}

func (p partnerJSON) toModel() *model.PartnerCategory {
	return &model.PartnerCategory{
		ID:         p.ID,
		Name:       p.Name,
		IsCustomer: p.IsCustomer,
	}
}

func toPartnerJSON(p *model.PartnerCategory) partnerJSON {
	return partnerJSON{
		ID:         p.ID,
		Name:       p.Name,
		IsCustomer: p.IsCustomer,
	}
}

type dataJSON struct {
	ID                 int64     `json:"id,omitempty"`
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	Owner              ownerJSON `json:"owner"`
	ProviderProcessID  int64     `json:"provider_process_id,omitempty"`
	ProviderPartnerID  int64     `json:"provider_partner_id,omitempty"`
	ConsumerProcessIDs []int64   `json:"consumer_process_ids,omitempty"`
	ConsumerPartnerIDs []int64   `json:"consumer_partner_ids,omitempty"`
	IsCustomerVoice    bool      `json:"is_customer_voice"`
}

func (d dataJSON) toModel() *model.ProcessData {
	return &model.ProcessData{
		ID:                 d.ID,
		Name:               d.Name,
		Description:        d.Description,
		Owner:              d.Owner.toModel(),
		ProviderProcessID:  d.ProviderProcessID,
		ProviderPartnerID:  d.ProviderPartnerID,
		ConsumerProcessIDs: d.ConsumerProcessIDs,
		ConsumerPartnerIDs: d.ConsumerPartnerIDs,
		IsCustomerVoice:    d.IsCustomerVoice,
	}
}

func toDataJSON(d *model.ProcessData) dataJSON {
	return dataJSON{
		ID:                 d.ID,
		Name:               d.Name,
		Description:        d.Description,
		Owner:              toOwnerJSON(d.Owner),
		ProviderProcessID:  d.ProviderProcessID,
		ProviderPartnerID:  d.ProviderPartnerID,
		ConsumerProcessIDs: d.ConsumerProcessIDs,
		ConsumerPartnerIDs: d.ConsumerPartnerIDs,
		IsCustomerVoice:    d.IsCustomerVoice,
	}
}

type kindCountJSON struct {
	Threats       int `json:"threats"`
	Opportunities int `json:"opportunities"`
	Total         int `json:"total"`
}

func toKindCountJSON(c model.KindCount) kindCountJSON {
	return kindCountJSON{
		Threats:       c.Threats,
		Opportunities: c.Opportunities,
		Total:         c.Total(),
	}
}

type profileResponse struct {
	All          kindCountJSON  `json:"all"`
	Confirmed    kindCountJSON  `json:"confirmed"`
	Unacceptable kindCountJSON  `json:"unacceptable"`
	ByStage      map[string]int `json:"by_stage"`
}

func toProfileResponse(p *model.RiskProfile) profileResponse {
	resp := profileResponse{
		All:          toKindCountJSON(p.All),
		Confirmed:    toKindCountJSON(p.Confirmed),
		Unacceptable: toKindCountJSON(p.Unacceptable),
		ByStage:      make(map[string]int, len(p.ByStage)),
	}
	for stage, n := range p.ByStage {
		resp.ByStage[stage.String()] = n
	}
	return resp
}
