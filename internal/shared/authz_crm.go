package shared

// CRM workflow permissions.
const (
	PermLeadView    = "crm.lead.view"
	PermLeadEdit    = "crm.lead.edit"
	PermLeadConvert = "crm.lead.convert"
	PermLeadDelete  = "crm.lead.delete"

	PermQuotationView    = "crm.quotation.view"
	PermQuotationEdit    = "crm.quotation.edit"
	PermQuotationApprove = "crm.quotation.approve"
	PermQuotationDelete  = "crm.quotation.delete"

	PermRevisionView    = "crm.revision.view"
	PermRevisionEdit    = "crm.revision.edit"
	PermRevisionApprove = "crm.revision.approve"

	PermProjectView = "crm.project.view"
	PermProjectEdit = "crm.project.edit"

	PermVariationView    = "crm.variation.view"
	PermVariationEdit    = "crm.variation.edit"
	PermVariationApprove = "crm.variation.approve"

	PermSiteVisitView = "crm.sitevisit.view"
	PermSiteVisitEdit = "crm.sitevisit.edit"
)

// CRMScopes lists all permissions used by the workflow modules.
func CRMScopes() []string {
	return []string{
		PermLeadView, PermLeadEdit, PermLeadConvert, PermLeadDelete,
		PermQuotationView, PermQuotationEdit, PermQuotationApprove, PermQuotationDelete,
		PermRevisionView, PermRevisionEdit, PermRevisionApprove,
		PermProjectView, PermProjectEdit,
		PermVariationView, PermVariationEdit, PermVariationApprove,
		PermSiteVisitView, PermSiteVisitEdit,
	}
}
