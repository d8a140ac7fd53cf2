package pets

import "context"

// ClinicOf expone la clínica dueña de la ficha.
// Lo usan discharges/adherence para autorizar sin importar el handler de pets.
func (s *Service) ClinicOf(ctx context.Context, petID string) (string, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return "", err
	}
	return p.ClinicID, nil
}
