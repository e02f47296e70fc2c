package web

import (
	"github.com/dmitrymomot/stockroom/pkg/handler"
	"github.com/dmitrymomot/stockroom/pkg/rbac"
)

type section struct {
	name  string
	read  string
	write string
}

type dashboardLayout struct {
	title    string
	sections []section
}

var (
	sectionItems     = section{name: "items", read: rbac.PermItemsRead, write: rbac.PermItemsWrite}
	sectionIssuances = section{name: "issuances", read: rbac.PermIssuanceRead, write: rbac.PermIssuanceWrite}
	sectionUsers     = section{name: "users", read: rbac.PermUsersManage, write: rbac.PermUsersManage}
)

var dashboards = map[string]dashboardLayout{
	"admin":    {title: "Administration", sections: []section{sectionUsers, sectionItems, sectionIssuances}},
	"stock":    {title: "Stock management", sections: []section{sectionItems, sectionIssuances}},
	"employee": {title: "My equipment", sections: []section{sectionItems, sectionIssuances}},
}

// DashboardRequest selects a dashboard by name.
type DashboardRequest struct {
	Name string `path:"name"`
}

// DashboardResponse describes what the role may see and change.
type DashboardResponse struct {
	Name     string             `json:"name"`
	Title    string             `json:"title"`
	Role     string             `json:"role"`
	Sections []DashboardSection `json:"sections"`
}

// DashboardSection is one panel of a dashboard.
type DashboardSection struct {
	Name     string `json:"name"`
	Writable bool   `json:"writable"`
}

func (s *Server) dashboardRedirect(ctx handler.Context, _ struct{}) handler.Response {
	path, err := s.auth.Dashboard(currentTab(ctx).Role)
	if err != nil {
		return handler.Error(err)
	}
	return handler.Redirect(path)
}

func (s *Server) dashboard(ctx handler.Context, req DashboardRequest) handler.Response {
	layout, ok := dashboards[req.Name]
	if !ok {
		return handler.Error(handler.ErrNotFound)
	}
	if err := s.auth.CanFromContext(ctx, rbac.PermDashboardPrefix+req.Name); err != nil {
		return handler.Error(err)
	}

	role := currentTab(ctx).Role
	resp := DashboardResponse{Name: req.Name, Title: layout.title, Role: role, Sections: []DashboardSection{}}
	for _, sec := range layout.sections {
		if s.auth.Can(role, sec.read) != nil {
			continue
		}
		resp.Sections = append(resp.Sections, DashboardSection{
			Name:     sec.name,
			Writable: s.auth.Can(role, sec.write) == nil,
		})
	}
	return handler.JSON(resp)
}
