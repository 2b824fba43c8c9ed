package payment

import (
	"context"
	"log"
	"log/slog"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"hotel-payment-service/internal/db"
	"hotel-payment-service/internal/gateway"
	"hotel-payment-service/internal/model"
	"hotel-payment-service/internal/payment"
	"hotel-payment-service/tests/testhelpers"
)

type ServiceTestSuite struct {
	suite.Suite
	pgContainer   *testhelpers.PostgresContainer
	pool          *pgxpool.Pool
	payments      *db.PaymentRepository
	notifications *db.NotificationRepository
	sut           *payment.Service
	ctx           context.Context
}

func (s *ServiceTestSuite) SetupSuite() {
	time.Local = time.UTC

	s.ctx = context.Background()
	pgContainer, err := testhelpers.CreatePostgresContainer(s.ctx)
	if err != nil {
		log.Fatal(err)
	}
	s.pgContainer = pgContainer

	db.RunMigrations(pgContainer.ConnectionString, "../../../migrations")

	pool, err := db.GetPool(pgContainer.ConnectionString)
	if err != nil {
		log.Fatal(err)
	}

	s.pool = pool
	s.payments = db.NewPaymentRepository(pool)
	s.notifications = db.NewNotificationRepository(pool)

	gatewayClient := gateway.NewClient(gateway.Config{
		CompanyToken:  "COMPANY-TOKEN",
		APIURL:        "https://gateway.example.com/API/v6/",
		PayURL:        "https://gateway.example.com/pay?ID=",
		TimeoutMs:     1000,
		TokenTTLHours: 96,
		ServiceType:   "5525",
	}, slog.Default())

	s.sut = payment.NewService(gatewayClient, s.payments, s.notifications, "TZS", slog.Default())
}

func (s *ServiceTestSuite) TearDownSuite() {
	s.pool.Close()

	if err := s.pgContainer.Terminate(s.ctx); err != nil {
		log.Fatalf("error terminating postgres container: %s", err)
	}
}

func (s *ServiceTestSuite) SetupTest() {
	for _, table := range []string{"payment", "notification_outbox"} {
		if _, err := s.pool.Exec(s.ctx, "DELETE FROM "+table); err != nil {
			log.Fatalf("error truncating %s table: %s", table, err)
		}
	}
}

func (s *ServiceTestSuite) TearDownTest() {
	gock.Off()
}

func tokenRequest() model.TokenRequest {
	return model.TokenRequest{
		Amount:             150000,
		CompanyRef:         "BOOKING-42",
		CustomerFirstName:  "Asha",
		CustomerLastName:   "Mushi",
		CustomerEmail:      "asha@example.com",
		CustomerPhone:      "+255700000000",
		RedirectURL:        "https://hotel.example.com/checkout/done",
		BackURL:            "https://hotel.example.com/checkout",
		ServiceDescription: "Deluxe Room, 2 nights",
	}
}

func (s *ServiceTestSuite) TestCreateToken_RecordsPaymentAndEnqueuesNotification() {
	t := s.T()

	gock.New("https://gateway.example.com").
		Post("/API/v6/").
		Reply(200).
		BodyString(`<API3G><Result>000</Result><TransToken>ABC123</TransToken><TransRef>REF-9</TransRef></API3G>`)

	result, err := s.sut.CreateToken(s.ctx, tokenRequest())
	require.NoError(t, err)
	assert.Equal(t, "ABC123", result.TransToken)

	entity, err := s.payments.GetByTransToken(s.ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, db.PaymentStatusTokenIssued, entity.Status)
	assert.Equal(t, "BOOKING-42", entity.CompanyRef)
	assert.Equal(t, "TZS", entity.Currency)

	tx, err := s.notifications.BeginTx(s.ctx)
	require.NoError(t, err)
	defer tx.Rollback(s.ctx)

	pending, err := s.notifications.GetUnpublished(s.ctx, tx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, entity.ID, pending[0].PaymentID)
	assert.Contains(t, pending[0].Payload, "payment.token_issued")
}

func (s *ServiceTestSuite) TestCreateToken_GatewayRejectionIsRecorded() {
	t := s.T()

	gock.New("https://gateway.example.com").
		Post("/API/v6/").
		Reply(200).
		BodyString(`<API3G><Result>904</Result><ResultExplanation>Duplicate CompanyRef</ResultExplanation></API3G>`)

	_, err := s.sut.CreateToken(s.ctx, tokenRequest())
	require.Error(t, err)

	var rejected *gateway.RejectedError
	require.ErrorAs(t, err, &rejected)

	entity, err := s.payments.GetByCompanyRef(s.ctx, "BOOKING-42")
	require.NoError(t, err)
	assert.Equal(t, db.PaymentStatusFailed, entity.Status)
	assert.Equal(t, "904", *entity.ResultCode)
	assert.Equal(t, "Duplicate CompanyRef", *entity.ResultExplanation)
}

func (s *ServiceTestSuite) TestCreateToken_ValidationRejectsBeforeGateway() {
	t := s.T()

	req := tokenRequest()
	req.Amount = -10

	_, err := s.sut.CreateToken(s.ctx, req)
	require.Error(t, err)

	var validation *payment.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func (s *ServiceTestSuite) TestVerifyToken_MarksPaymentPaid() {
	t := s.T()

	gock.New("https://gateway.example.com").
		Post("/API/v6/").
		Reply(200).
		BodyString(`<API3G><Result>000</Result><TransToken>ABC123</TransToken><TransRef>REF-9</TransRef></API3G>`)

	_, err := s.sut.CreateToken(s.ctx, tokenRequest())
	require.NoError(t, err)

	gock.New("https://gateway.example.com").
		Post("/API/v6/").
		Reply(200).
		BodyString(`<API3G><Result>000</Result><ResultExplanation>Transaction Paid</ResultExplanation><TransToken>ABC123</TransToken><TransRef>REF-9</TransRef><TransactionAmount>150000.00</TransactionAmount><TransactionCurrency>TZS</TransactionCurrency></API3G>`)

	result, err := s.sut.VerifyToken(s.ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "000", result.Result)

	entity, err := s.payments.GetByTransToken(s.ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, db.PaymentStatusPaid, entity.Status)
	assert.NotNil(t, entity.VerifiedAt)

	tx, err := s.notifications.BeginTx(s.ctx)
	require.NoError(t, err)
	defer tx.Rollback(s.ctx)

	pending, err := s.notifications.GetUnpublished(s.ctx, tx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
}

func (s *ServiceTestSuite) TestVerifyToken_NotPaidLeavesPaymentUntouched() {
	t := s.T()

	gock.New("https://gateway.example.com").
		Post("/API/v6/").
		Reply(200).
		BodyString(`<API3G><Result>000</Result><TransToken>ABC123</TransToken><TransRef>REF-9</TransRef></API3G>`)

	_, err := s.sut.CreateToken(s.ctx, tokenRequest())
	require.NoError(t, err)

	gock.New("https://gateway.example.com").
		Post("/API/v6/").
		Reply(200).
		BodyString(`<API3G><Result>901</Result><ResultExplanation>Transaction not paid yet</ResultExplanation></API3G>`)

	result, err := s.sut.VerifyToken(s.ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "901", result.Result)

	entity, err := s.payments.GetByTransToken(s.ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, db.PaymentStatusTokenIssued, entity.Status)
	assert.Nil(t, entity.VerifiedAt)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
