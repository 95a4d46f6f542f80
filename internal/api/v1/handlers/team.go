package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type createTeamRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

type joinTeamRequest struct {
	Code string `json:"code" validate:"required"`
}

// CreateTeam creates a team owned by the current user.
func (h *Handler) CreateTeam(c *fiber.Ctx) error {
	var req createTeamRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeError(c, err)
	}
	team, err := h.svc.CreateTeam(c.UserContext(), userID(c), req.Name, req.Description)
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Team created successfully", team)
}

// ListTeams returns the user's teams.
func (h *Handler) ListTeams(c *fiber.Ctx) error {
	teams, err := h.svc.ListTeams(c.UserContext(), userID(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Teams retrieved successfully", teams)
}

// GetTeam returns a team with its members.
func (h *Handler) GetTeam(c *fiber.Ctx) error {
	team, err := h.svc.GetTeam(c.UserContext(), userID(c), c.Params("teamId"))
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Team retrieved successfully", team)
}

// TeamBoards lists boards attached to the team.
func (h *Handler) TeamBoards(c *fiber.Ctx) error {
	boards, err := h.svc.TeamBoards(c.UserContext(), userID(c), c.Params("teamId"))
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Team boards retrieved successfully", boards)
}

// TeamMembers lists the team's members.
func (h *Handler) TeamMembers(c *fiber.Ctx) error {
	members, err := h.svc.TeamMembers(c.UserContext(), userID(c), c.Params("teamId"))
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Team members retrieved successfully", members)
}

// GenerateInviteCode rotates the team's invite code.
func (h *Handler) GenerateInviteCode(c *fiber.Ctx) error {
	code, err := h.svc.GenerateInviteCode(c.UserContext(), userID(c), c.Params("teamId"))
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Invite code generated successfully", code)
}

// GetInviteCode returns null data when the team has no active code.
func (h *Handler) GetInviteCode(c *fiber.Ctx) error {
	code, err := h.svc.InviteCode(c.UserContext(), userID(c), c.Params("teamId"))
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Invite code retrieved successfully", code)
}

// JoinTeam joins the team named by an invite code.
func (h *Handler) JoinTeam(c *fiber.Ctx) error {
	var req joinTeamRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeError(c, err)
	}
	result, err := h.svc.JoinTeamByCode(c.UserContext(), userID(c), req.Code)
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Joined team successfully", result)
}
