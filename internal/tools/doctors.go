package tools

import (
	"context"
	"fmt"

	"github.com/xiaot623/healthflow/internal/domain"
)

func (r *Registry) findAllDoctors(ctx context.Context) (interface{}, error) {
	doctors, err := r.users.ListUsersByRole(ctx, domain.UserRoleDoctor)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	if len(doctors) == 0 {
		return ErrorPayload{Error: "No doctors found in the system."}, nil
	}

	out := make([]DoctorPayload, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, DoctorPayload{ID: d.ID, FullName: d.FullName})
	}
	return out, nil
}

func (r *Registry) findDoctorByName(ctx context.Context, args *FindDoctorByNameArgs) (interface{}, error) {
	doctor, err := r.users.FindDoctorByName(ctx, args.DoctorName)
	if err != nil {
		return nil, fmt.Errorf("failed to find doctor: %w", err)
	}
	if doctor == nil {
		return ErrorPayload{Error: fmt.Sprintf("No doctor found with a name like '%s'.", args.DoctorName)}, nil
	}
	return DoctorPayload{ID: doctor.ID, FullName: doctor.FullName}, nil
}
