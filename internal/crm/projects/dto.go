package projects

type CreateProjectRequest struct {
	Name                     string   `json:"name" validate:"required,max=300"`
	LocationDetails          string   `json:"locationDetails"`
	WorkingHours             string   `json:"workingHours" validate:"max=200"`
	ManpowerCount            int      `json:"manpowerCount" validate:"gte=0"`
	AssignedSiteEngineer     string   `json:"assignedSiteEngineer" validate:"max=200"`
	AssignedProjectEngineers []string `json:"assignedProjectEngineers" validate:"dive,max=200"`
	Budget                   float64  `json:"budget" validate:"gte=0"`
}

type UpdateProjectRequest struct {
	Name                     *string  `json:"name,omitempty" validate:"omitempty,max=300"`
	LocationDetails          *string  `json:"locationDetails,omitempty"`
	WorkingHours             *string  `json:"workingHours,omitempty" validate:"omitempty,max=200"`
	ManpowerCount            *int     `json:"manpowerCount,omitempty" validate:"omitempty,gte=0"`
	AssignedSiteEngineer     *string  `json:"assignedSiteEngineer,omitempty" validate:"omitempty,max=200"`
	AssignedProjectEngineers []string `json:"assignedProjectEngineers,omitempty" validate:"omitempty,dive,max=200"`
	Budget                   *float64 `json:"budget,omitempty" validate:"omitempty,gte=0"`
	Status                   *Status  `json:"status,omitempty" validate:"omitempty,oneof=active on_hold completed"`
}

type ListProjectsRequest struct {
	Status  *Status `json:"status,omitempty"`
	Search  string  `json:"search,omitempty"`
	Page    int     `json:"page" validate:"gte=0"`
	PerPage int     `json:"perPage" validate:"gte=0,lte=200"`
}
