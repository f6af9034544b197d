package converter

import (
	"medibook/internal/delivery/dto"
	"medibook/internal/domain/entity"
)

// UserToResponse converts a User entity to UserResponse DTO
// Includes the linked Patient if it is loaded
func UserToResponse(user *entity.User) *dto.UserResponse {
	if user == nil {
		return nil
	}

	return &dto.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Role:      string(user.Role),
		PatientID: user.PatientID,
		Patient:   PatientToResponse(user.Patient),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
