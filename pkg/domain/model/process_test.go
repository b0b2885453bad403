package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

func TestProcess_Validate(t *testing.T) {
	p := newProcess(1, "Sales", types.ProcessTypeOperation)
	gt.NoError(t, p.Validate())

	p.Name = ""
	gt.Bool(t, errors.Is(p.Validate(), model.ErrMissingName)).True()

	p = newProcess(1, "Sales", "X")
	gt.Bool(t, errors.Is(p.Validate(), model.ErrInvalidProcessType)).True()

	p = newProcess(1, "Sales", types.ProcessTypeOperation)
	p.Owner = model.Owner{Scope: types.ScopeProject}
	gt.Bool(t, errors.Is(p.Validate(), model.ErrInvalidOwner)).True()
}

func TestOwner(t *testing.T) {
	gt.NoError(t, model.UnitOwner("sales").Validate())
	gt.NoError(t, model.ProjectOwner(3).Validate())
	gt.Value(t, model.UnitOwner("sales").Key()).Equal("business/sales")
	gt.Value(t, model.ProjectOwner(3).Key()).Equal("project/3")

	err := model.Owner{Scope: types.ScopeBusiness, UnitID: "sales", ProjectID: 1}.Validate()
	gt.Bool(t, errors.Is(err, model.ErrInvalidOwner)).True()
}

func TestProcessData_Validate(t *testing.T) {
	owner := model.UnitOwner("sales")

	tests := []struct {
		name string
		data model.ProcessData
		want error
	}{
		{
			name: "internal provider",
			data: model.ProcessData{Name: "Order", Owner: owner, ProviderProcessID: 1, ConsumerProcessIDs: []int64{2}},
		},
		{
			name: "external provider",
			data: model.ProcessData{Name: "Order", Owner: owner, ProviderPartnerID: 1, ConsumerProcessIDs: []int64{2}},
		},
		{
			name: "no provider",
			data: model.ProcessData{Name: "Order", Owner: owner},
			want: model.ErrInvalidProvider,
		},
		{
			name: "two providers",
			data: model.ProcessData{Name: "Order", Owner: owner, ProviderProcessID: 1, ProviderPartnerID: 1},
			want: model.ErrInvalidProvider,
		},
		{
			name: "provider is consumer",
			data: model.ProcessData{Name: "Order", Owner: owner, ProviderProcessID: 1, ConsumerProcessIDs: []int64{2, 1}},
			want: model.ErrProviderIsConsumer,
		},
		{
			name: "partner is consumer",
			data: model.ProcessData{Name: "Order", Owner: owner, ProviderPartnerID: 4, ConsumerPartnerIDs: []int64{4}},
			want: model.ErrProviderIsConsumer,
		},
		{
			name: "missing name",
			data: model.ProcessData{Owner: owner, ProviderProcessID: 1},
			want: model.ErrMissingName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate()
			if tt.want == nil {
				gt.NoError(t, err)
				return
			}
			gt.Bool(t, errors.Is(err, tt.want)).True()
		})
	}
}

func TestCheckInput(t *testing.T) {
	data := &model.ProcessData{ID: 3, ProviderProcessID: 5}
	gt.Bool(t, errors.Is(model.CheckInput(5, data), model.ErrSelfConsumption)).True()
	gt.NoError(t, model.CheckInput(6, data))
}
