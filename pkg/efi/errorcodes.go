package efi

import "sort"

// errorMessages tabla de códigos de error del servicio de fiscalización.
// Es un contrato con la administración tributaria: no modificar los textos.
var errorMessages = map[int]string{
	0:  "Exception during XML extraction for size check",
	1:  "XML message exceeds allowed size",
	2:  "Client time differs from server time by more than allowed (6 hours) or is in the future",
	10: "Exception during XML extraction for XSD validation",
	11: "XML validation failed",
	20: "Exception during signature extraction",
	21: "Signature element missing in XML message",
	22: "XML request element missing",
	23: "Exception during signature element extraction",
	24: "More than one signature element provided",
	25: "Wrong XML element signed",
	26: "Wrong signature method specified",
	27: "Wrong canonicalization method specified",
	28: "Wrong digest method specified",
	29: "Cryptographic signature incorrect",
	30: "Digest calculation incorrect",
	31: "Overall signature incorrect",
	32: "More key information than required",
	33: "Certificate is not X509 type",
	34: "Certificate not valid",
	35: "Certificate not issued by registered CA",
	36: "Certificate expired",
	37: "TIN mismatch between XML and certificate",
	38: "Certificate revoked",
	39: "Certificate status unknown",
	40: "Invoice amount too large for cash invoice",
	41: "Business unit code does not refer to active unit",
	42: "Software code does not refer to active software",
	43: "Maintainer code does not refer to active maintainer",
	44: "Issuer VAT status does not match IsIssuerInVAT attribute",
	45: "ValidFrom cannot be in the past",
	46: "ValidTo cannot be in the past",
	47: "ValidTo cannot be before ValidFrom",
	48: "Active TCR cannot be updated",
	49: "Change date time differs from CIS time by more than allowed",
	50: "Cash amount for INITIAL operation cannot be negative",
	51: "Cash amount cannot be zero for WITHDRAW operation",
	52: "Taxpayer does not exist in taxpayer registry",
	53: "TCR code does not refer to registered or active TCR",
	54: "ID type must be TIN",
	55: "Taxpayer not active in registry",
	56: "Cash deposit with INITIAL operation already registered for current day",
	57: "Deactivated TCR cannot be changed",
	58: "Initial cash deposit must be registered before invoice fiscalization",
}

// DescribeError devuelve la descripción registrada para un código de error.
func DescribeError(code int) (string, bool) {
	msg, ok := errorMessages[code]
	return msg, ok
}

// ErrorCodes devuelve los códigos registrados en orden ascendente.
func ErrorCodes() []int {
	codes := make([]int, 0, len(errorMessages))
	for c := range errorMessages {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes
}
