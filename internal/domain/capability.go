package domain

// Capability names a single action a role may perform. The table below is
// the only place role permissions are defined; every service operation
// consults it through Role.Can.
type Capability string

const (
	CapSubmitExpense     Capability = "submit_expense"
	CapReviewExpense     Capability = "review_expense"
	CapFinalizeExpense   Capability = "finalize_expense"
	CapSubmitVoucher     Capability = "submit_voucher"
	CapApproveVoucher    Capability = "approve_voucher"
	CapLogVoucher        Capability = "log_voucher"
	CapTopUpWallet       Capability = "topup_wallet"
	CapViewAnyWallet     Capability = "view_any_wallet"
	CapManageEquipment   Capability = "manage_equipment"
	CapCloseEquipment    Capability = "close_equipment"
	CapManageRates       Capability = "manage_rates"
	CapRecordManualTally Capability = "record_manual_tally"
	CapViewReports       Capability = "view_reports"
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleAdmin: caps(
		CapSubmitExpense, CapReviewExpense,
		CapSubmitVoucher, CapApproveVoucher,
		CapTopUpWallet, CapViewAnyWallet,
		CapManageEquipment, CapCloseEquipment,
		CapManageRates, CapRecordManualTally, CapViewReports,
	),
	RoleManager: caps(
		CapSubmitExpense, CapReviewExpense,
		CapSubmitVoucher,
		CapViewAnyWallet,
		CapManageEquipment, CapCloseEquipment,
		CapManageRates, CapViewReports,
	),
	RoleSupervisor: caps(
		CapSubmitExpense, CapSubmitVoucher,
		CapManageEquipment, CapCloseEquipment,
	),
	RoleAccountant: caps(
		CapFinalizeExpense, CapLogVoucher,
		CapTopUpWallet, CapViewAnyWallet,
		CapRecordManualTally, CapViewReports,
	),
	RoleOffice: caps(
		CapViewReports,
	),
}

func caps(cs ...Capability) map[Capability]bool {
	m := make(map[Capability]bool, len(cs))
	for _, c := range cs {
		m[c] = true
	}
	return m
}

func (r Role) Can(c Capability) bool {
	return roleCapabilities[r][c]
}
