package customerdb

import "time"

var seedEpoch = time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)

func sampleData() ([]Customer, []Ticket) {
	type c struct {
		id                 int64
		name, email, phone string
		status             string
	}
	rows := []c{
		{5, "Test User 5", "user5@example.com", "+1-555-0005", StatusActive},
		{12345, "Premium User", "premium@example.com", "+1-555-12345", StatusActive},
		{1, "John Doe", "john.doe@example.com", "+1-555-0101", StatusActive},
		{2, "Jane Smith", "jane.smith@example.com", "+1-555-0102", StatusActive},
		{3, "Bob Johnson", "bob.johnson@example.com", "+1-555-0103", StatusDisabled},
		{4, "Alice Williams", "alice.w@techcorp.com", "+1-555-0104", StatusActive},
		{6, "Charlie Brown", "charlie.brown@email.com", "+1-555-0105", StatusActive},
		{7, "Diana Prince", "diana.prince@company.org", "+1-555-0106", StatusActive},
		{8, "Edward Norton", "e.norton@business.net", "+1-555-0107", StatusActive},
		{9, "Fiona Green", "fiona.green@startup.io", "+1-555-0108", StatusDisabled},
		{10, "George Miller", "george.m@enterprise.com", "+1-555-0109", StatusActive},
		{11, "Hannah Lee", "hannah.lee@global.com", "+1-555-0110", StatusActive},
		{12, "Isaac Newton", "isaac.n@science.edu", "+1-555-0111", StatusActive},
		{13, "Julia Roberts", "julia.r@movies.com", "+1-555-0112", StatusActive},
		{14, "Kevin Chen", "kevin.chen@tech.io", "+1-555-0113", StatusDisabled},
		{15, "Laura Martinez", "laura.m@solutions.com", "+1-555-0114", StatusActive},
		{16, "Michael Scott", "michael.scott@paper.com", "+1-555-0115", StatusActive},
	}
	customers := make([]Customer, 0, len(rows))
	for _, r := range rows {
		customers = append(customers, Customer{
			ID:        r.id,
			Name:      r.name,
			Email:     r.email,
			Phone:     r.phone,
			Status:    r.status,
			CreatedAt: seedEpoch,
			UpdatedAt: seedEpoch,
		})
	}

	type t struct {
		customerID       int64
		issue            string
		status, priority string
	}
	ticketRows := []t{
		{1, "Cannot login to account", TicketOpen, PriorityHigh},
		{4, "Database connection timeout errors", TicketInProgress, PriorityHigh},
		{7, "Payment processing failing for all transactions", TicketOpen, PriorityHigh},
		{10, "Critical security vulnerability found", TicketInProgress, PriorityHigh},
		{14, "Website completely down", TicketResolved, PriorityHigh},
		{12345, "Need help upgrading my account", TicketOpen, PriorityMedium},
		{1, "Password reset not working", TicketInProgress, PriorityMedium},
		{2, "Profile image upload fails", TicketResolved, PriorityMedium},
		{5, "Email notifications not being received", TicketOpen, PriorityMedium},
		{6, "Dashboard loading very slowly", TicketInProgress, PriorityMedium},
		{9, "Export to CSV feature broken", TicketOpen, PriorityMedium},
		{11, "Mobile app crashes on startup", TicketResolved, PriorityMedium},
		{12, "Search functionality returning wrong results", TicketInProgress, PriorityMedium},
		{15, "API rate limiting too restrictive", TicketOpen, PriorityMedium},
		{2, "Billing question about invoice", TicketResolved, PriorityLow},
		{2, "Feature request: dark mode", TicketOpen, PriorityLow},
		{3, "Documentation outdated for API v2", TicketOpen, PriorityLow},
		{5, "Typo in welcome email", TicketResolved, PriorityLow},
		{6, "Request for additional language support", TicketOpen, PriorityLow},
		{9, "Font size too small on settings page", TicketResolved, PriorityLow},
		{11, "Feature request: export to PDF", TicketOpen, PriorityLow},
		{12, "Color scheme suggestion for better contrast", TicketOpen, PriorityLow},
		{14, "Request access to beta features", TicketInProgress, PriorityLow},
		{15, "Question about pricing plans", TicketResolved, PriorityLow},
		{4, "Feature request: integration with Slack", TicketOpen, PriorityLow},
		{10, "Suggestion: add keyboard shortcuts", TicketOpen, PriorityLow},
	}
	tickets := make([]Ticket, 0, len(ticketRows))
	for i, r := range ticketRows {
		tickets = append(tickets, Ticket{
			CustomerID: r.customerID,
			Issue:      r.issue,
			Status:     r.status,
			Priority:   r.priority,
			CreatedAt:  seedEpoch.Add(time.Duration(i) * time.Minute),
		})
	}
	return customers, tickets
}
