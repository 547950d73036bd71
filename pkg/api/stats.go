package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/harrisonrobin/taskhr/pkg/model"
)

func (c *Client) Overview(ctx context.Context) (model.Overview, error) {
	var out model.Overview
	err := c.getJSON(ctx, "/statistics/overview", nil, &out)
	return out, err
}

func (c *Client) TaskStatistics(ctx context.Context) (model.TaskStats, error) {
	var out model.TaskStats
	err := c.getJSON(ctx, "/statistics/tasks", nil, &out)
	return out, err
}

func (c *Client) LeaveStatistics(ctx context.Context, year int) (model.LeaveStats, error) {
	var out model.LeaveStats
	q := url.Values{"year": {strconv.Itoa(year)}}
	err := c.getJSON(ctx, "/statistics/leaves", q, &out)
	return out, err
}

func (c *Client) AttendanceStatistics(ctx context.Context, month, year int) (model.AttendanceStats, error) {
	var out model.AttendanceStats
	q := url.Values{
		"month": {strconv.Itoa(month)},
		"year":  {strconv.Itoa(year)},
	}
	err := c.getJSON(ctx, "/statistics/attendance", q, &out)
	return out, err
}

func (c *Client) TeamPerformance(ctx context.Context) ([]model.TeamPerformance, error) {
	var out []model.TeamPerformance
	if err := c.getJSON(ctx, "/statistics/team-performance", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) EmployeesByDepartment(ctx context.Context) ([]model.DepartmentCount, error) {
	var out []model.DepartmentCount
	if err := c.getJSON(ctx, "/statistics/employees-by-department", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
